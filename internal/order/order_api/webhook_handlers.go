package order_api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-payments/internal/order"
	"ms-payments/internal/payment/paystack"
	"ms-payments/internal/utils"
)

// maxWebhookBody caps webhook payload reads at 1 MiB.
const maxWebhookBody = 1 << 20

// PaystackWebhook handles callbacks from the local aggregator. The raw body
// is read before any parsing because the HMAC covers the exact bytes sent.
func (h *Handler) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "PaystackWebhook: received webhook event")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PaystackWebhook: failed to read body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	signature := r.Header.Get(paystack.SignatureHeader)
	orderData, err := h.OrderService.HandlePaystackWebhook(r.Context(), body, signature)
	if err != nil {
		h.writeWebhookError(w, "PaystackWebhook", err)
		return
	}

	if orderData == nil {
		utils.WriteJSON(w, http.StatusOK, utils.WebhookResponse{Message: "Event ignored"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.WebhookResponse{
		Message: "Order processed successfully",
		Order:   orderData,
	})
	h.Logger.Info("API", fmt.Sprintf("PaystackWebhook: processed order %s", orderData.ID))
}

// StripeWebhook handles callbacks from the international provider.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "StripeWebhook: received webhook event")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: failed to read body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	orderData, err := h.OrderService.HandleStripeWebhook(r.Context(), body, signature)
	if err != nil {
		h.writeWebhookError(w, "StripeWebhook", err)
		return
	}

	if orderData == nil {
		utils.WriteJSON(w, http.StatusOK, utils.WebhookResponse{Message: "Event ignored"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.WebhookResponse{
		Message: "Order processed successfully",
		Order:   orderData,
	})
	h.Logger.Info("API", fmt.Sprintf("StripeWebhook: processed order %s", orderData.ID))
}

func (h *Handler) writeWebhookError(w http.ResponseWriter, op string, err error) {
	h.Logger.Error("API", fmt.Sprintf("%s: failed to process webhook: %v", op, err))

	var whErr *order.WebhookError
	if errors.As(err, &whErr) {
		h.Logger.Info("API", fmt.Sprintf("%s: webhook error category=%s, status=%d", op, whErr.Category, whErr.StatusCode))
		utils.WriteError(w, whErr.StatusCode, whErr.PublicError)
		return
	}

	utils.WriteError(w, http.StatusInternalServerError, "Webhook processing error")
}
