package events_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-payments/internal/auth"
	"ms-payments/internal/events"
	"ms-payments/internal/logger"
	"ms-payments/internal/models"
	"ms-payments/internal/order/db"
	"ms-payments/internal/payment"
	"ms-payments/internal/utils"
)

type Handler struct {
	EventService *events.EventService
	Logger       *logger.Logger
}

func NewHandler(eventService *events.EventService, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, Logger: log}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "CreateEvent: received request")

	var req events.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Organizer is always the authenticated caller.
	if uid := auth.UserID(r.Context()); uid != "" {
		req.OrganizerID = uid
	}

	event, err := h.EventService.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeEventError(w, "CreateEvent", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(event); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateEvent: created event %s", event.ID))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("UpdateEvent: eventId=%s", eventID))

	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	event.ID = eventID

	if err := h.EventService.UpdateEvent(r.Context(), &event); err != nil {
		h.writeEventError(w, "UpdateEvent", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(event); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("UpdateEvent: updated event %s", eventID))
}

func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("PublishEvent: eventId=%s", eventID))

	event, err := h.EventService.PublishEvent(r.Context(), eventID)
	if err != nil {
		h.writeEventError(w, "PublishEvent", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(event); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PublishEvent: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("PublishEvent: published event %s", eventID))
}

func (h *Handler) writeEventError(w http.ResponseWriter, op string, err error) {
	var vErr *payment.ValidationError

	switch {
	case errors.Is(err, db.ErrEventNotFound):
		utils.WriteError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, events.ErrNotPublishable):
		h.Logger.Warn("API", fmt.Sprintf("%s: organizer payout identifier missing", op))
		utils.WriteError(w, http.StatusConflict, "Connect a payout account before publishing this event")
	case errors.As(err, &vErr):
		h.Logger.Warn("API", fmt.Sprintf("%s: validation failed: %v", op, vErr))
		utils.WriteError(w, http.StatusBadRequest, vErr.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to process event")
	}
}
