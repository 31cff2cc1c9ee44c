package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-payments/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEventNotFound = errors.New("event not found")
	ErrUserNotFound  = errors.New("user not found")
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// GetOrderByID fetches one order by its ID.
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByReference fetches the order holding a provider reference.
func (d *DB) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("provider_reference = ?", reference).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// InsertOrderIfAbsent inserts the order unless a row with the same provider
// reference already exists. The unique index on provider_reference makes this
// safe under concurrent webhook delivery: exactly one insert wins, the rest
// observe inserted=false and take the update path.
func (d *DB) InsertOrderIfAbsent(ctx context.Context, order *models.Order) (inserted bool, err error) {
	res, err := d.Bun.NewInsert().
		Model(order).
		On("CONFLICT (provider_reference) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkOrderCompleted flips payment_status to completed without touching any
// other field. Orders are never recreated or rewritten after materialization.
func (d *DB) MarkOrderCompleted(ctx context.Context, reference string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("payment_status = ?", models.PaymentStatusCompleted).
		Set("updated_at = ?", time.Now()).
		Where("provider_reference = ?", reference).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// GetOrderDetails returns an order populated with event and buyer summaries.
func (d *DB) GetOrderDetails(ctx context.Context, id string) (*models.OrderDetails, error) {
	order, err := d.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &models.OrderDetails{Order: *order}

	event, err := d.GetEventByID(ctx, order.EventID)
	if err == nil {
		details.Event = event
	} else if !errors.Is(err, ErrEventNotFound) {
		return nil, err
	}

	if !order.IsGuest() {
		buyer, err := d.GetUserByID(ctx, order.BuyerID)
		if err == nil {
			details.Buyer = buyer
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
	}

	return details, nil
}

// ---------------- EVENTS ----------------

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(event).
		Column("title", "subtitle", "description", "currency", "location", "start_date", "price_categories", "is_free", "status", "updated_at").
		Where("id = ?", event.ID).
		Exec(ctx)
	return err
}

// ---------------- USERS ----------------

func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
