package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-payments/internal/config"
	"ms-payments/internal/events"
	"ms-payments/internal/logger"
	"ms-payments/internal/models"
	"ms-payments/internal/payment"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) CreateEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockDBLayer) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func testPlatform() config.PlatformConfig {
	return config.PlatformConfig{
		LocalCurrency:     "NGN",
		LocalCountry:      "Nigeria",
		OrganizerSharePct: 80,
	}
}

func newService(db *MockDBLayer) *events.EventService {
	return events.NewEventService(db, testPlatform(), logger.NewLogger())
}

func paidCreateRequest() events.CreateEventRequest {
	return events.CreateEventRequest{
		OrganizerID: "org-1",
		Title:       "Lagos Tech Summit",
		Currency:    "NGN",
		Location:    "Lagos, Nigeria",
		StartDate:   time.Now().AddDate(0, 1, 0),
		PriceCategories: []models.PriceCategory{
			{Name: "Regular", Price: "100.00"},
		},
	}
}

func TestCreateEventStartsAsDraft(t *testing.T) {
	db := new(MockDBLayer)
	db.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)

	event, err := newService(db).CreateEvent(context.Background(), paidCreateRequest())

	assert.NoError(t, err)
	assert.Equal(t, models.EventStatusDraft, event.Status)
	assert.NotEmpty(t, event.ID)
}

func TestCreateEventPaidRequiresCategories(t *testing.T) {
	req := paidCreateRequest()
	req.PriceCategories = nil

	_, err := newService(new(MockDBLayer)).CreateEvent(context.Background(), req)

	var vErr *payment.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "priceCategories", vErr.Field)
}

func TestCreateEventFreeRejectsCategories(t *testing.T) {
	req := paidCreateRequest()
	req.IsFree = true

	_, err := newService(new(MockDBLayer)).CreateEvent(context.Background(), req)

	var vErr *payment.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestCreateEventRejectsInvalidCategoryPrice(t *testing.T) {
	req := paidCreateRequest()
	req.PriceCategories = []models.PriceCategory{{Name: "VIP", Price: "not-a-number"}}

	_, err := newService(new(MockDBLayer)).CreateEvent(context.Background(), req)

	var vErr *payment.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestPublishFreeEventImmediately(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetEventByID", mock.Anything, "evt-1").Return(&models.Event{
		ID:          "evt-1",
		OrganizerID: "org-1",
		IsFree:      true,
		Status:      models.EventStatusDraft,
	}, nil)
	db.On("UpdateEvent", mock.Anything, mock.Anything).Return(nil)

	event, err := newService(db).PublishEvent(context.Background(), "evt-1")

	assert.NoError(t, err)
	assert.Equal(t, models.EventStatusPublished, event.Status)
	db.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func TestPublishPaidLocalEventRequiresSubaccount(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetEventByID", mock.Anything, "evt-1").Return(&models.Event{
		ID:          "evt-1",
		OrganizerID: "org-1",
		Currency:    "NGN",
		Location:    "Lagos, Nigeria",
		Status:      models.EventStatusDraft,
	}, nil)
	db.On("GetUserByID", mock.Anything, "org-1").Return(&models.User{ID: "org-1"}, nil)

	_, err := newService(db).PublishEvent(context.Background(), "evt-1")

	assert.ErrorIs(t, err, events.ErrNotPublishable)
	db.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything)
}

func TestPublishPaidInternationalEventRequiresStripeAccount(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetEventByID", mock.Anything, "evt-1").Return(&models.Event{
		ID:          "evt-1",
		OrganizerID: "org-1",
		Currency:    "USD",
		Location:    "Berlin, Germany",
		Status:      models.EventStatusDraft,
	}, nil)
	db.On("GetUserByID", mock.Anything, "org-1").Return(&models.User{ID: "org-1", SubaccountCode: "ACCT_org"}, nil)

	_, err := newService(db).PublishEvent(context.Background(), "evt-1")

	assert.ErrorIs(t, err, events.ErrNotPublishable)
}

func TestPublishPaidEventWithPayoutIdentifier(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetEventByID", mock.Anything, "evt-1").Return(&models.Event{
		ID:          "evt-1",
		OrganizerID: "org-1",
		Currency:    "NGN",
		Location:    "Lagos, Nigeria",
		Status:      models.EventStatusDraft,
	}, nil)
	db.On("GetUserByID", mock.Anything, "org-1").Return(&models.User{ID: "org-1", SubaccountCode: "ACCT_org"}, nil)
	db.On("UpdateEvent", mock.Anything, mock.Anything).Return(nil)

	event, err := newService(db).PublishEvent(context.Background(), "evt-1")

	assert.NoError(t, err)
	assert.Equal(t, models.EventStatusPublished, event.Status)
}

func TestPublishAlreadyPublishedIsNoOp(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetEventByID", mock.Anything, "evt-1").Return(&models.Event{
		ID:     "evt-1",
		Status: models.EventStatusPublished,
	}, nil)

	event, err := newService(db).PublishEvent(context.Background(), "evt-1")

	assert.NoError(t, err)
	assert.Equal(t, models.EventStatusPublished, event.Status)
	db.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything)
}
