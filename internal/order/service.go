package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"ms-payments/internal/config"
	"ms-payments/internal/logger"
	"ms-payments/internal/models"
	"ms-payments/internal/order/db"
	"ms-payments/internal/payment"
	"ms-payments/internal/payment/paystack"
	"ms-payments/internal/payment/stripe"
	"ms-payments/internal/utils"
)

type DBLayer interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByReference(ctx context.Context, reference string) (*models.Order, error)
	InsertOrderIfAbsent(ctx context.Context, order *models.Order) (bool, error)
	MarkOrderCompleted(ctx context.Context, reference string) error
	GetOrderDetails(ctx context.Context, id string) (*models.OrderDetails, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type ReferenceLock interface {
	AcquireReferenceLock(ctx context.Context, reference string) (bool, error)
	ReleaseReferenceLock(ctx context.Context, reference string) error
}

type KafkaPublisher interface {
	Publish(topic string, key string, value []byte) error
}

type TicketMailer interface {
	SendTicketEmail(order *models.Order, event *models.Event) error
}

type PaystackGateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error)
}

type StripeGateway interface {
	CreatePaymentIntent(req stripe.IntentRequest) (string, error)
	CreateCheckoutSession(req stripe.SessionRequest) (string, error)
}

type OrderEmitter interface {
	EmitOrderCompleted(order models.Order)
}

type OrderService struct {
	DB       DBLayer
	Redis    ReferenceLock
	Kafka    KafkaPublisher
	Mailer   TicketMailer
	Paystack PaystackGateway
	Stripe   StripeGateway
	Emitter  OrderEmitter

	platform       config.PlatformConfig
	paystackCfg    config.PaystackConfig
	stripeSecret   string
	completedTopic string
	logger         *logger.Logger
}

func NewOrderService(
	dbLayer DBLayer,
	redis ReferenceLock,
	kafka KafkaPublisher,
	mailer TicketMailer,
	paystackGW PaystackGateway,
	stripeGW StripeGateway,
	emitter OrderEmitter,
	cfg *config.Config,
	log *logger.Logger,
) *OrderService {
	return &OrderService{
		DB:             dbLayer,
		Redis:          redis,
		Kafka:          kafka,
		Mailer:         mailer,
		Paystack:       paystackGW,
		Stripe:         stripeGW,
		Emitter:        emitter,
		platform:       cfg.Platform,
		paystackCfg:    cfg.Paystack,
		stripeSecret:   cfg.Stripe.WebhookSecret,
		completedTopic: cfg.Kafka.Topics.OrderCompleted,
		logger:         log,
	}
}

// ---------------- CHECKOUT INITIATION ----------------

// CheckoutRequest is the internal checkout-initiation contract. BuyerID is a
// user id or the "guest" sentinel; for guests the buyer contact fields must
// be supplied, for registered buyers they default to the user record.
type CheckoutRequest struct {
	EventID         string                  `json:"eventId"`
	BuyerID         string                  `json:"buyerId"`
	BuyerEmail      string                  `json:"buyerEmail,omitempty"`
	FirstName       string                  `json:"firstName,omitempty"`
	LastName        string                  `json:"lastName,omitempty"`
	Amount          string                  `json:"price"`
	Currency        string                  `json:"currency"`
	Quantity        int                     `json:"quantity"`
	PriceCategories []models.PriceSelection `json:"priceCategories,omitempty"`
	PaymentMethod   string                  `json:"paymentMethod"`
}

// CheckoutSession is the result of checkout initiation. Exactly one of
// RedirectURL and ClientSecret is set; callers branch on which is present.
type CheckoutSession struct {
	RedirectURL  string        `json:"redirectUrl,omitempty"`
	ClientSecret string        `json:"clientSecret,omitempty"`
	Order        *models.Order `json:"order,omitempty"`
}

// InitiateCheckout routes the purchase, builds the provider-specific checkout
// request and returns either a redirect URL or a client confirmation secret.
// Free events skip the providers entirely and materialize the order at once.
func (s *OrderService) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	event, err := s.DB.GetEventByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	buyer, err := s.resolveBuyer(ctx, &req)
	if err != nil {
		return nil, err
	}

	if event.IsFree {
		return s.materializeFreeOrder(ctx, event, req)
	}

	amountMinor, err := payment.MinorUnits(req.Amount)
	if err != nil {
		return nil, err
	}

	provider := payment.Route(req.Currency, event.Location, s.platform.LocalCurrency, s.platform.LocalCountry)

	organizer, err := s.DB.GetUserByID(ctx, event.OrganizerID)
	if err != nil {
		return nil, fmt.Errorf("organizer lookup failed: %w", err)
	}

	// The payout identifier must exist for the routed provider before any
	// outbound provider call is made.
	switch provider {
	case payment.ProviderPaystack:
		if organizer.SubaccountCode == "" {
			return nil, payment.ErrOrganizerNotPaymentReady
		}
	case payment.ProviderStripe:
		if organizer.StripeAccountID == "" {
			return nil, payment.ErrOrganizerNotPaymentReady
		}
	}

	meta, err := payment.EncodeMetadata(payment.Metadata{
		EventID:         event.ID,
		BuyerID:         req.BuyerID,
		Quantity:        req.Quantity,
		PriceCategories: req.PriceCategories,
	})
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	split := payment.Split(amountMinor, s.platform.OrganizerSharePct)

	switch provider {
	case payment.ProviderPaystack:
		reference := utils.NewReference(event.ID)
		resp, err := s.Paystack.InitializeTransaction(ctx, paystack.InitializeRequest{
			Email:             buyerEmail(buyer, req),
			Amount:            amountMinor,
			Currency:          strings.ToUpper(req.Currency),
			Reference:         reference,
			CallbackURL:       s.paystackCfg.CallbackURL,
			Metadata:          meta,
			Subaccount:        organizer.SubaccountCode,
			TransactionCharge: split.PlatformShare,
			Bearer:            "account",
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("CHECKOUT", fmt.Sprintf("paystack checkout %s for event %s (%d minor units)", reference, event.ID, amountMinor))
		return &CheckoutSession{RedirectURL: resp.AuthorizationURL}, nil

	default:
		if req.PaymentMethod == models.PaymentMethodCard {
			secret, err := s.Stripe.CreatePaymentIntent(stripe.IntentRequest{
				AmountMinor:        amountMinor,
				Currency:           strings.ToLower(req.Currency),
				ApplicationFee:     split.PlatformShare,
				DestinationAccount: organizer.StripeAccountID,
				Metadata:           meta,
			})
			if err != nil {
				return nil, err
			}
			s.logger.Info("CHECKOUT", fmt.Sprintf("stripe payment intent for event %s (%d minor units)", event.ID, amountMinor))
			return &CheckoutSession{ClientSecret: secret}, nil
		}

		unitAmount := amountMinor / int64(req.Quantity)
		sessionQuantity := int64(req.Quantity)
		if amountMinor%sessionQuantity != 0 {
			// Per-ticket price doesn't divide evenly; collapse to one line
			// item so the session charges the exact requested total.
			unitAmount = amountMinor
			sessionQuantity = 1
		}
		redirectURL, err := s.Stripe.CreateCheckoutSession(stripe.SessionRequest{
			EventTitle:         event.Title,
			UnitAmountMinor:    unitAmount,
			Quantity:           sessionQuantity,
			Currency:           strings.ToLower(req.Currency),
			ApplicationFee:     split.PlatformShare,
			DestinationAccount: organizer.StripeAccountID,
			SuccessURL:         fmt.Sprintf(s.platform.CheckoutSuccessURL, event.ID),
			CancelURL:          fmt.Sprintf(s.platform.CheckoutCancelURL, event.ID),
			Metadata:           meta,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("CHECKOUT", fmt.Sprintf("stripe checkout session for event %s (%d minor units)", event.ID, amountMinor))
		return &CheckoutSession{RedirectURL: redirectURL}, nil
	}
}

func (s *OrderService) resolveBuyer(ctx context.Context, req *CheckoutRequest) (*models.User, error) {
	if req.BuyerID == "" {
		req.BuyerID = models.GuestBuyerID
	}
	if req.BuyerID == models.GuestBuyerID {
		if req.BuyerEmail == "" {
			return nil, &payment.ValidationError{Field: "buyerEmail", Message: "required for guest checkout"}
		}
		return nil, nil
	}
	buyer, err := s.DB.GetUserByID(ctx, req.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("buyer lookup failed: %w", err)
	}
	return buyer, nil
}

func buyerEmail(buyer *models.User, req CheckoutRequest) string {
	if req.BuyerEmail != "" {
		return req.BuyerEmail
	}
	if buyer != nil {
		return buyer.Email
	}
	return ""
}

func (s *OrderService) materializeFreeOrder(ctx context.Context, event *models.Event, req CheckoutRequest) (*CheckoutSession, error) {
	reference := utils.NewInternalReference(event.ID)
	order, _, err := s.reconcile(ctx, reconcileInput{
		Reference:     reference,
		PaymentMethod: models.PaymentMethodNone,
		AmountMinor:   0,
		Currency:      event.Currency,
		Meta: payment.Metadata{
			EventID:         event.ID,
			BuyerID:         req.BuyerID,
			Quantity:        req.Quantity,
			PriceCategories: req.PriceCategories,
		},
		Email:     req.BuyerEmail,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{Order: order}, nil
}

// ---------------- WEBHOOK INGESTION ----------------

// WebhookError carries the HTTP status a webhook handler must answer with.
// Providers retry on 5xx only, so validation failures map to 4xx to stop
// retries and infrastructure failures map to 500.
type WebhookError struct {
	Category      string
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

// HandlePaystackWebhook processes one Paystack callback. A nil order with a
// nil error means the event type was ignored; the handler acknowledges with
// 200 either way because Paystack retries anything else.
func (s *OrderService) HandlePaystackWebhook(ctx context.Context, body []byte, signature string) (*models.Order, error) {
	if s.paystackCfg.SecretKey == "" {
		return nil, &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "paystack secret key is not configured",
		}
	}

	if !paystack.VerifySignature(body, signature, s.paystackCfg.SecretKey) {
		s.logger.LogSecurity("PAYSTACK_SIGNATURE", fmt.Sprintf("signature mismatch, got %q", signature))
		return nil, &WebhookError{
			Category:      "signature",
			StatusCode:    http.StatusUnauthorized,
			PublicError:   "Invalid webhook signature",
			InternalError: fmt.Sprintf("paystack signature mismatch: %s", signature),
		}
	}

	var event paystack.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("unparseable paystack payload: %v", err),
			OriginalErr:   err,
		}
	}

	if event.Event != paystack.EventChargeSuccess {
		s.logger.LogWebhook("paystack", event.Event, "ignored event type")
		return nil, nil
	}

	var charge paystack.ChargeData
	if err := json.Unmarshal(event.Data, &charge); err != nil {
		return nil, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid charge data",
			InternalError: fmt.Sprintf("unparseable paystack charge data: %v", err),
			OriginalErr:   err,
		}
	}

	meta, err := payment.DecodeMetadata(charge.Metadata)
	if err != nil {
		return nil, webhookValidationError(err)
	}

	order, _, err := s.reconcile(ctx, reconcileInput{
		Reference:     charge.Reference,
		PaymentMethod: models.PaymentMethodPaystack,
		AmountMinor:   charge.Amount,
		Currency:      strings.ToUpper(charge.Currency),
		Meta:          meta,
		Email:         charge.Customer.Email,
		FirstName:     charge.Customer.FirstName,
		LastName:      charge.Customer.LastName,
	})
	if err != nil {
		return nil, webhookReconcileError(err)
	}

	s.logger.LogWebhook("paystack", event.Event, fmt.Sprintf("order %s reconciled for reference %s", order.ID, charge.Reference))
	return order, nil
}

// HandleStripeWebhook processes one Stripe callback. Signature verification
// goes through the Stripe SDK against the webhook signing secret.
func (s *OrderService) HandleStripeWebhook(ctx context.Context, body []byte, signatureHeader string) (*models.Order, error) {
	if s.stripeSecret == "" {
		return nil, &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "stripe webhook secret is not configured",
		}
	}

	event, err := webhook.ConstructEventWithOptions(body, signatureHeader, s.stripeSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isStripeSignatureError(err) {
			s.logger.LogSecurity("STRIPE_SIGNATURE", fmt.Sprintf("verification failed: %v", err))
			return nil, &WebhookError{
				Category:      "signature",
				StatusCode:    http.StatusUnauthorized,
				PublicError:   "Invalid webhook signature",
				InternalError: fmt.Sprintf("stripe signature verification failed: %v", err),
				OriginalErr:   err,
			}
		}
		return nil, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid event payload",
			InternalError: fmt.Sprintf("stripe event parse failed: %v", err),
			OriginalErr:   err,
		}
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, &WebhookError{
				Category:      "validation",
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid event data",
				InternalError: fmt.Sprintf("unparseable checkout session: %v", err),
				OriginalErr:   err,
			}
		}

		meta, err := payment.DecodeMetadata(session.Metadata)
		if err != nil {
			return nil, webhookValidationError(err)
		}

		email := ""
		if session.CustomerDetails != nil {
			email = session.CustomerDetails.Email
		}

		order, _, err := s.reconcile(ctx, reconcileInput{
			Reference:     session.ID,
			PaymentMethod: models.PaymentMethodWallet,
			AmountMinor:   session.AmountTotal,
			Currency:      strings.ToUpper(string(session.Currency)),
			Meta:          meta,
			Email:         email,
		})
		if err != nil {
			return nil, webhookReconcileError(err)
		}

		s.logger.LogWebhook("stripe", string(event.Type), fmt.Sprintf("order %s reconciled for session %s", order.ID, session.ID))
		return order, nil

	case "payment_intent.succeeded":
		var intent stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, &WebhookError{
				Category:      "validation",
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid event data",
				InternalError: fmt.Sprintf("unparseable payment intent: %v", err),
				OriginalErr:   err,
			}
		}

		meta, err := payment.DecodeMetadata(intent.Metadata)
		if err != nil {
			return nil, webhookValidationError(err)
		}

		order, _, err := s.reconcile(ctx, reconcileInput{
			Reference:     intent.ID,
			PaymentMethod: models.PaymentMethodCard,
			AmountMinor:   intent.Amount,
			Currency:      strings.ToUpper(string(intent.Currency)),
			Meta:          meta,
			Email:         intent.ReceiptEmail,
		})
		if err != nil {
			return nil, webhookReconcileError(err)
		}

		s.logger.LogWebhook("stripe", string(event.Type), fmt.Sprintf("order %s reconciled for intent %s", order.ID, intent.ID))
		return order, nil

	default:
		s.logger.LogWebhook("stripe", string(event.Type), "ignored event type")
		return nil, nil
	}
}

// isStripeSignatureError tells a rejected signature apart from a body the
// SDK could verify but not parse; only the former gets a 401.
func isStripeSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func webhookValidationError(err error) *WebhookError {
	return &WebhookError{
		Category:      "validation",
		StatusCode:    http.StatusBadRequest,
		PublicError:   "Invalid webhook metadata",
		InternalError: err.Error(),
		OriginalErr:   err,
	}
}

func webhookReconcileError(err error) error {
	var whErr *WebhookError
	if errors.As(err, &whErr) {
		return whErr
	}
	var valErr *payment.ValidationError
	if errors.As(err, &valErr) {
		return webhookValidationError(valErr)
	}
	if errors.Is(err, db.ErrEventNotFound) {
		return &WebhookError{
			Category:      "not_found",
			StatusCode:    http.StatusNotFound,
			PublicError:   "Event not found",
			InternalError: err.Error(),
			OriginalErr:   err,
		}
	}
	return &WebhookError{
		Category:      "processing",
		StatusCode:    http.StatusInternalServerError,
		PublicError:   "Failed to process payment event",
		InternalError: err.Error(),
		OriginalErr:   err,
	}
}

// ---------------- RECONCILIATION ----------------

type reconcileInput struct {
	Reference     string
	PaymentMethod string
	AmountMinor   int64
	Currency      string
	Meta          payment.Metadata
	Email         string
	FirstName     string
	LastName      string
}

// reconcile materializes the order for an external reference at most once.
// Webhook delivery is at-least-once; the unique index on provider_reference
// guarantees a single insert wins while every retry converges on the same
// completed order. Ticket email, Kafka event and SSE broadcast fire only on
// the winning insert.
func (s *OrderService) reconcile(ctx context.Context, in reconcileInput) (*models.Order, bool, error) {
	if in.Reference == "" {
		return nil, false, &payment.ValidationError{Field: "reference", Message: "missing provider reference"}
	}

	event, err := s.DB.GetEventByID(ctx, in.Meta.EventID)
	if err != nil {
		return nil, false, err
	}

	// Best-effort serialization of parallel deliveries; the DB constraint is
	// the actual guarantee when the lock is unavailable or expires.
	if s.Redis != nil {
		if locked, lockErr := s.Redis.AcquireReferenceLock(ctx, in.Reference); lockErr == nil && locked {
			defer s.Redis.ReleaseReferenceLock(ctx, in.Reference)
		}
	}

	buyerID := in.Meta.BuyerID
	if buyerID == models.GuestBuyerID {
		buyerID = ""
	}

	email, firstName, lastName := in.Email, in.FirstName, in.LastName
	if buyerID != "" && (email == "" || firstName == "") {
		if buyer, buyerErr := s.DB.GetUserByID(ctx, buyerID); buyerErr == nil {
			if email == "" {
				email = buyer.Email
			}
			if firstName == "" {
				firstName = buyer.FirstName
			}
			if lastName == "" {
				lastName = buyer.LastName
			}
		}
	}

	order := &models.Order{
		ID:                uuid.NewString(),
		EventID:           event.ID,
		BuyerID:           buyerID,
		BuyerEmail:        email,
		FirstName:         firstName,
		LastName:          lastName,
		TotalAmount:       payment.FormatMinorUnits(in.AmountMinor),
		Currency:          in.Currency,
		PaymentMethod:     in.PaymentMethod,
		Quantity:          in.Meta.Quantity,
		PriceCategories:   in.Meta.PriceCategories,
		ProviderReference: in.Reference,
		PaymentStatus:     models.PaymentStatusCompleted,
		CreatedAt:         time.Now(),
	}

	inserted, err := s.DB.InsertOrderIfAbsent(ctx, order)
	if err != nil {
		return nil, false, fmt.Errorf("order insert failed: %w", err)
	}

	if !inserted {
		// Duplicate or out-of-order delivery: flip the status in place, never
		// recreate, never resend the ticket email.
		if err := s.DB.MarkOrderCompleted(ctx, in.Reference); err != nil {
			return nil, false, fmt.Errorf("order status update failed: %w", err)
		}
		existing, err := s.DB.GetOrderByReference(ctx, in.Reference)
		if err != nil {
			return nil, false, err
		}
		s.logger.Info("RECONCILE", fmt.Sprintf("duplicate delivery for reference %s, order %s already materialized", in.Reference, existing.ID))
		return existing, false, nil
	}

	s.afterOrderCreated(order, event)
	return order, true, nil
}

// afterOrderCreated runs the creation side effects. Failures here are logged
// and swallowed: the order is already durable and the provider must still
// receive a 2xx so it stops retrying.
func (s *OrderService) afterOrderCreated(order *models.Order, event *models.Event) {
	if s.Mailer != nil {
		if err := s.Mailer.SendTicketEmail(order, event); err != nil {
			s.logger.Error("MAILER", fmt.Sprintf("ticket email for order %s failed: %v", order.ID, err))
		}
	}

	if s.Kafka != nil {
		value, err := json.Marshal(order)
		if err == nil {
			if err := s.Kafka.Publish(s.completedTopic, order.ID, value); err != nil {
				s.logger.Error("KAFKA", fmt.Sprintf("publish order completed for %s failed: %v", order.ID, err))
			}
		}
	}

	if s.Emitter != nil {
		s.Emitter.EmitOrderCompleted(*order)
	}
}

// ---------------- READS ----------------

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.OrderDetails, error) {
	return s.DB.GetOrderDetails(ctx, id)
}

// VerifyTicket returns the reduced public view of an order for QR scans.
// Access is scoped only by knowledge of the order id.
func (s *OrderService) VerifyTicket(ctx context.Context, orderID string) (*models.OrderVerification, error) {
	details, err := s.DB.GetOrderDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}

	v := &models.OrderVerification{
		OrderID:       details.ID,
		Quantity:      details.Quantity,
		TotalAmount:   details.TotalAmount,
		Currency:      details.Currency,
		PaymentMethod: details.PaymentMethod,
		CreatedAt:     details.CreatedAt,
	}
	if details.Event != nil {
		v.EventTitle = details.Event.Title
		v.EventSubtitle = details.Event.Subtitle
		v.EventDate = details.Event.StartDate
		v.EventLocation = details.Event.Location

		if organizer, err := s.DB.GetUserByID(ctx, details.Event.OrganizerID); err == nil {
			v.OrganizerName = organizer.FullName()
		}
	}
	return v, nil
}
