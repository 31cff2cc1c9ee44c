package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-payments/internal/logger"
	"ms-payments/internal/order"
	"ms-payments/internal/order/db"
	"ms-payments/internal/payment"
	"ms-payments/internal/utils"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{
		OrderService: orderService,
		Logger:       log,
	}
}

// InitiateCheckout validates the purchase request and hands back either a
// provider redirect URL or a client confirmation secret.
func (h *Handler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "InitiateCheckout: received request")

	var req order.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("InitiateCheckout: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.EventID == "" {
		utils.WriteError(w, http.StatusBadRequest, "eventId is required")
		return
	}

	session, err := h.OrderService.InitiateCheckout(r.Context(), req)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(session); err != nil {
		h.Logger.Error("API", fmt.Sprintf("InitiateCheckout: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("InitiateCheckout: checkout created for event %s", req.EventID))
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error) {
	var vErr *payment.ValidationError
	var pErr *payment.ProviderError

	switch {
	case errors.Is(err, payment.ErrOrganizerNotPaymentReady):
		h.Logger.Warn("API", "InitiateCheckout: organizer payout identifier missing")
		utils.WriteError(w, http.StatusConflict, "Tickets for this event cannot be purchased yet")
	case errors.Is(err, db.ErrEventNotFound):
		utils.WriteError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, db.ErrUserNotFound):
		utils.WriteError(w, http.StatusNotFound, "Buyer not found")
	case errors.As(err, &vErr):
		h.Logger.Warn("API", fmt.Sprintf("InitiateCheckout: validation failed: %v", vErr))
		utils.WriteError(w, http.StatusBadRequest, vErr.Error())
	case errors.As(err, &pErr):
		h.Logger.Error("API", fmt.Sprintf("InitiateCheckout: provider call failed: %v", pErr))
		utils.WriteError(w, http.StatusBadGateway, "Payment provider is unavailable, try again later")
	default:
		h.Logger.Error("API", fmt.Sprintf("InitiateCheckout: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to initiate checkout")
	}
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	h.Logger.Info("API", fmt.Sprintf("GetOrder: orderId=%s", orderID))

	details, err := h.OrderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: order not found: %v", err))
		utils.WriteError(w, http.StatusNotFound, "Order not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(details); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", "GetOrder: response sent successfully")
}

// VerifyTicket serves the unauthenticated QR-scan view. It exposes only the
// reduced verification fields, never the buyer's contact details.
func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		orderID = chi.URLParam(r, "orderId")
	}
	h.Logger.Info("API", fmt.Sprintf("VerifyTicket: orderId=%s", orderID))

	if orderID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Order ID is required")
		return
	}

	verification, err := h.OrderService.VerifyTicket(r.Context(), orderID)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("VerifyTicket: order not found: %v", err))
		utils.WriteError(w, http.StatusNotFound, "Ticket not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(verification); err != nil {
		h.Logger.Error("API", fmt.Sprintf("VerifyTicket: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("VerifyTicket: verified order %s", orderID))
}
