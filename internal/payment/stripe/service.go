package stripe

import (
	"errors"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"ms-payments/internal/logger"
	"ms-payments/internal/payment"
)

var ErrClientInitFailed = errors.New("failed to initialize Stripe client")

// Service handles the international card provider. Marketplace splitting is
// done with destination transfers to the organizer's connected account plus
// an application fee retained by the platform.
type Service struct {
	client *client.API
	log    *logger.Logger
}

func NewService(secretKey string, log *logger.Logger) (*Service, error) {
	if secretKey == "" {
		log.Error("STRIPE", "secret key not configured")
		return nil, ErrClientInitFailed
	}
	sc := client.New(secretKey, nil)
	log.Info("STRIPE", "Stripe client initialized")
	return &Service{client: sc, log: log}, nil
}

// IntentRequest describes a direct card charge confirmed client-side.
type IntentRequest struct {
	AmountMinor        int64
	Currency           string
	ApplicationFee     int64
	DestinationAccount string
	Metadata           map[string]string
}

// CreatePaymentIntent creates a payment-intent with a destination transfer.
// The returned client secret is confirmed in the buyer's browser; no redirect.
func (s *Service) CreatePaymentIntent(req IntentRequest) (clientSecret string, err error) {
	params := &stripeapi.PaymentIntentParams{
		Amount:               stripeapi.Int64(req.AmountMinor),
		Currency:             stripeapi.String(req.Currency),
		ApplicationFeeAmount: stripeapi.Int64(req.ApplicationFee),
		TransferData: &stripeapi.PaymentIntentTransferDataParams{
			Destination: stripeapi.String(req.DestinationAccount),
		},
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("failed to create payment intent: %v", err))
		return "", wrapStripeErr(err)
	}

	s.log.Info("STRIPE", fmt.Sprintf("created payment intent %s (%d %s)", pi.ID, req.AmountMinor, req.Currency))
	return pi.ClientSecret, nil
}

// SessionRequest describes a hosted checkout session for wallet-style
// payment methods.
type SessionRequest struct {
	EventTitle         string
	UnitAmountMinor    int64
	Quantity           int64
	Currency           string
	ApplicationFee     int64
	DestinationAccount string
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
}

// CreateCheckoutSession creates a hosted session with a single line item and
// the same destination-transfer split. Returns the redirect URL.
func (s *Service) CreateCheckoutSession(req SessionRequest) (redirectURL string, err error) {
	params := &stripeapi.CheckoutSessionParams{
		Mode: stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripeapi.String(req.Currency),
					UnitAmount: stripeapi.Int64(req.UnitAmountMinor),
					ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripeapi.String(req.EventTitle),
					},
				},
				Quantity: stripeapi.Int64(req.Quantity),
			},
		},
		PaymentIntentData: &stripeapi.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripeapi.Int64(req.ApplicationFee),
			TransferData: &stripeapi.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripeapi.String(req.DestinationAccount),
			},
		},
		SuccessURL: stripeapi.String(req.SuccessURL),
		CancelURL:  stripeapi.String(req.CancelURL),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("failed to create checkout session: %v", err))
		return "", wrapStripeErr(err)
	}

	s.log.Info("STRIPE", fmt.Sprintf("created checkout session %s", sess.ID))
	return sess.URL, nil
}

func wrapStripeErr(err error) error {
	var sErr *stripeapi.Error
	if errors.As(err, &sErr) {
		return &payment.ProviderError{
			Provider:  payment.ProviderStripe,
			Message:   sErr.Msg,
			Transient: sErr.HTTPStatusCode >= 500,
			Err:       err,
		}
	}
	return &payment.ProviderError{
		Provider:  payment.ProviderStripe,
		Message:   "stripe API request failed",
		Transient: true,
		Err:       err,
	}
}
