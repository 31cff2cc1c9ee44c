package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-payments/internal/config"
	"ms-payments/internal/logger"
	"ms-payments/internal/models"
	"ms-payments/internal/payment"
)

var ErrNotPublishable = errors.New("event cannot be published until the organizer can receive payouts")

type DBLayer interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type EventService struct {
	DB       DBLayer
	platform config.PlatformConfig
	logger   *logger.Logger
}

func NewEventService(db DBLayer, platform config.PlatformConfig, log *logger.Logger) *EventService {
	return &EventService{DB: db, platform: platform, logger: log}
}

type CreateEventRequest struct {
	OrganizerID     string                 `json:"organizerId"`
	Title           string                 `json:"title"`
	Subtitle        string                 `json:"subtitle,omitempty"`
	Description     string                 `json:"description,omitempty"`
	Currency        string                 `json:"currency"`
	Location        string                 `json:"location,omitempty"`
	StartDate       time.Time              `json:"startDate"`
	PriceCategories []models.PriceCategory `json:"priceCategories,omitempty"`
	IsFree          bool                   `json:"isFree"`
}

// CreateEvent stores a new draft. Paid events must carry at least one price
// category; free events must carry none.
func (s *EventService) CreateEvent(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	if req.Title == "" {
		return nil, &payment.ValidationError{Field: "title", Message: "required"}
	}
	if req.OrganizerID == "" {
		return nil, &payment.ValidationError{Field: "organizerId", Message: "required"}
	}
	if err := validatePricing(req.IsFree, req.Currency, req.PriceCategories); err != nil {
		return nil, err
	}

	event := &models.Event{
		ID:              uuid.NewString(),
		OrganizerID:     req.OrganizerID,
		Title:           req.Title,
		Subtitle:        req.Subtitle,
		Description:     req.Description,
		Currency:        req.Currency,
		Location:        req.Location,
		StartDate:       req.StartDate,
		PriceCategories: req.PriceCategories,
		IsFree:          req.IsFree,
		Status:          models.EventStatusDraft,
		CreatedAt:       time.Now(),
	}

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info("EVENTS", fmt.Sprintf("created draft event %s for organizer %s", event.ID, event.OrganizerID))
	return event, nil
}

// UpdateEvent applies edits to a draft or published event. Pricing invariants
// are re-checked because categories can be edited in place.
func (s *EventService) UpdateEvent(ctx context.Context, event *models.Event) error {
	existing, err := s.DB.GetEventByID(ctx, event.ID)
	if err != nil {
		return err
	}
	if err := validatePricing(event.IsFree, event.Currency, event.PriceCategories); err != nil {
		return err
	}

	event.OrganizerID = existing.OrganizerID
	event.CreatedAt = existing.CreatedAt
	event.Status = existing.Status
	event.UpdatedAt = time.Now()

	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	s.logger.Info("EVENTS", fmt.Sprintf("updated event %s", event.ID))
	return nil
}

// PublishEvent moves a draft to published. Free events publish immediately.
// Paid events publish only once the organizer holds the payout identifier for
// the provider their sales will route to, so checkout can never dead-end.
func (s *EventService) PublishEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusPublished {
		return event, nil
	}

	if !event.IsFree {
		organizer, err := s.DB.GetUserByID(ctx, event.OrganizerID)
		if err != nil {
			return nil, fmt.Errorf("organizer lookup failed: %w", err)
		}

		provider := payment.Route(event.Currency, event.Location, s.platform.LocalCurrency, s.platform.LocalCountry)
		switch provider {
		case payment.ProviderPaystack:
			if organizer.SubaccountCode == "" {
				return nil, ErrNotPublishable
			}
		case payment.ProviderStripe:
			if organizer.StripeAccountID == "" {
				return nil, ErrNotPublishable
			}
		}
	}

	event.Status = models.EventStatusPublished
	event.UpdatedAt = time.Now()
	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("publish event: %w", err)
	}

	s.logger.Info("EVENTS", fmt.Sprintf("published event %s", event.ID))
	return event, nil
}

func validatePricing(isFree bool, currency string, categories []models.PriceCategory) error {
	if isFree {
		if len(categories) > 0 {
			return &payment.ValidationError{Field: "priceCategories", Message: "free events cannot have price categories"}
		}
		return nil
	}
	if currency == "" {
		return &payment.ValidationError{Field: "currency", Message: "required for paid events"}
	}
	if len(categories) == 0 {
		return &payment.ValidationError{Field: "priceCategories", Message: "paid events need at least one price category"}
	}
	for _, pc := range categories {
		if pc.Name == "" {
			return &payment.ValidationError{Field: "priceCategories", Message: "category name is required"}
		}
		if _, err := payment.MinorUnits(pc.Price); err != nil {
			return &payment.ValidationError{Field: "priceCategories", Message: fmt.Sprintf("invalid price for category %q", pc.Name)}
		}
	}
	return nil
}
