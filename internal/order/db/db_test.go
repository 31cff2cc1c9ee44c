package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-payments/internal/models"
	"ms-payments/internal/order/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{(*models.User)(nil), (*models.Event)(nil), (*models.Order)(nil)} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func seedEvent(t *testing.T, d *db.DB) *models.Event {
	t.Helper()
	event := &models.Event{
		ID:          "evt-1",
		OrganizerID: "org-1",
		Title:       "Lagos Tech Summit",
		Currency:    "NGN",
		Location:    "Lagos, Nigeria",
		Status:      models.EventStatusPublished,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, d.CreateEvent(context.Background(), event))
	return event
}

func testOrder(reference string) *models.Order {
	return &models.Order{
		ID:                "ord-" + reference,
		EventID:           "evt-1",
		BuyerEmail:        "buyer@example.com",
		TotalAmount:       "100.00",
		Currency:          "NGN",
		PaymentMethod:     models.PaymentMethodPaystack,
		Quantity:          1,
		ProviderReference: reference,
		PaymentStatus:     models.PaymentStatusCompleted,
		CreatedAt:         time.Now(),
	}
}

func TestInsertOrderIfAbsentFirstInsertWins(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d)
	ctx := context.Background()

	inserted, err := d.InsertOrderIfAbsent(ctx, testOrder("ref_1"))
	assert.NoError(t, err)
	assert.True(t, inserted)

	duplicate := testOrder("ref_1")
	duplicate.ID = "ord-other"
	inserted, err = d.InsertOrderIfAbsent(ctx, duplicate)
	assert.NoError(t, err)
	assert.False(t, inserted, "second insert for the same reference must not create a row")

	stored, err := d.GetOrderByReference(ctx, "ref_1")
	assert.NoError(t, err)
	assert.Equal(t, "ord-ref_1", stored.ID, "the original order survives duplicate deliveries")
}

func TestGetOrderByReferenceNotFound(t *testing.T) {
	d := setupTestDB(t)

	_, err := d.GetOrderByReference(context.Background(), "ref_missing")
	assert.ErrorIs(t, err, db.ErrOrderNotFound)
}

func TestMarkOrderCompleted(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d)
	ctx := context.Background()

	pending := testOrder("ref_pending")
	pending.PaymentStatus = models.PaymentStatusPending
	_, err := d.InsertOrderIfAbsent(ctx, pending)
	require.NoError(t, err)

	assert.NoError(t, d.MarkOrderCompleted(ctx, "ref_pending"))

	stored, err := d.GetOrderByReference(ctx, "ref_pending")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, stored.PaymentStatus)
}

func TestMarkOrderCompletedUnknownReference(t *testing.T) {
	d := setupTestDB(t)

	err := d.MarkOrderCompleted(context.Background(), "ref_missing")
	assert.ErrorIs(t, err, db.ErrOrderNotFound)
}

func TestGetOrderDetailsPopulatesEventAndBuyer(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d)
	ctx := context.Background()

	buyer := &models.User{ID: "user-1", Email: "buyer@example.com", FirstName: "Ada", LastName: "Obi"}
	_, err := d.Bun.NewInsert().Model(buyer).Exec(ctx)
	require.NoError(t, err)

	o := testOrder("ref_details")
	o.BuyerID = "user-1"
	_, err = d.InsertOrderIfAbsent(ctx, o)
	require.NoError(t, err)

	details, err := d.GetOrderDetails(ctx, o.ID)
	assert.NoError(t, err)
	require.NotNil(t, details.Event)
	assert.Equal(t, "Lagos Tech Summit", details.Event.Title)
	require.NotNil(t, details.Buyer)
	assert.Equal(t, "Ada", details.Buyer.FirstName)
}

func TestGetOrderDetailsGuestOrderSkipsBuyerLookup(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d)
	ctx := context.Background()

	o := testOrder("ref_guest")
	_, err := d.InsertOrderIfAbsent(ctx, o)
	require.NoError(t, err)

	details, err := d.GetOrderDetails(ctx, o.ID)
	assert.NoError(t, err)
	assert.Nil(t, details.Buyer)
}

func TestUpdateEvent(t *testing.T) {
	d := setupTestDB(t)
	event := seedEvent(t, d)
	ctx := context.Background()

	event.Title = "Lagos Tech Summit 2026"
	event.Status = models.EventStatusDraft
	event.UpdatedAt = time.Now()
	assert.NoError(t, d.UpdateEvent(ctx, event))

	stored, err := d.GetEventByID(ctx, event.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Lagos Tech Summit 2026", stored.Title)
	assert.Equal(t, models.EventStatusDraft, stored.Status)
}
