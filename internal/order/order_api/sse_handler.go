package order_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-payments/internal/auth"
	"ms-payments/internal/logger"
	"ms-payments/internal/sse"
)

// SSEHandler streams completed orders to event organizers over Server-Sent
// Events so dashboards update live as webhooks land.
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.OrderEventEmitter
}

func NewSSEHandler(log *logger.Logger, emitter *sse.OrderEventEmitter) *SSEHandler {
	return &SSEHandler{
		Logger:       log,
		EventEmitter: emitter,
	}
}

// HandleEventOrders streams completed orders for one event. Requires a valid
// bearer token; the stream is per-event, not per-order.
func (h *SSEHandler) HandleEventOrders(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if eventID == "" {
		http.Error(w, "Event ID is required", http.StatusBadRequest)
		return
	}

	token, err := auth.ExtractTokenFromRequest(r)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("token extraction failed: %v", err))
		http.Error(w, "Unauthorized access", http.StatusUnauthorized)
		return
	}
	userID, err := auth.ExtractUserIDFromJWT(token)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("token parsing failed: %v", err))
		http.Error(w, "Unauthorized access", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	setupSSEHeaders(w)

	ctx := r.Context()
	orderChan := h.EventEmitter.SubscribeToEvent(ctx, eventID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"eventId\":\"%s\"}\n\n", eventID)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("user %s connected to order stream for event %s", userID, eventID))

	for {
		select {
		case orderData, ok := <-orderChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("channel closed for event %s", eventID))
				return
			}

			jsonData, err := json.Marshal(orderData)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize order event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: order\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("client disconnected from order stream for event %s", eventID))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
