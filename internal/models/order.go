package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment statuses for an order.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// Payment methods.
const (
	PaymentMethodPaystack = "paystack"
	PaymentMethodCard     = "card"
	PaymentMethodWallet   = "wallet"
	PaymentMethodNone     = "none"
)

// GuestBuyerID is the sentinel buyer reference for guest checkouts.
const GuestBuyerID = "guest"

// PriceSelection is the denormalized snapshot of a price category at purchase
// time. Later edits to the event's categories never alter historical orders.
type PriceSelection struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID                string           `bun:"id,pk" json:"id"`
	EventID           string           `bun:"event_id,notnull" json:"eventId"`
	BuyerID           string           `bun:"buyer_id,nullzero" json:"buyerId,omitempty"`
	BuyerEmail        string           `bun:"buyer_email" json:"buyerEmail"`
	FirstName         string           `bun:"first_name" json:"firstName,omitempty"`
	LastName          string           `bun:"last_name" json:"lastName,omitempty"`
	TotalAmount       string           `bun:"total_amount,notnull" json:"totalAmount"`
	Currency          string           `bun:"currency,notnull" json:"currency"`
	PaymentMethod     string           `bun:"payment_method,notnull" json:"paymentMethod"`
	Quantity          int              `bun:"quantity,notnull" json:"quantity"`
	PriceCategories   []PriceSelection `bun:"price_categories,type:jsonb,nullzero" json:"priceCategories,omitempty"`
	ProviderReference string           `bun:"provider_reference,notnull,unique" json:"providerReference"`
	PaymentStatus     string           `bun:"payment_status,notnull" json:"paymentStatus"`
	CreatedAt         time.Time        `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt         time.Time        `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

// IsGuest reports whether the order was placed without a user account.
func (o *Order) IsGuest() bool {
	return o.BuyerID == "" || o.BuyerID == GuestBuyerID
}

// OrderDetails is an order populated with its event and buyer summaries,
// returned by the order lookup endpoint.
type OrderDetails struct {
	Order `json:",inline"`

	Event *Event `json:"event,omitempty"`
	Buyer *User  `json:"buyer,omitempty"`
}

// OrderVerification is the reduced public view of an order served to anyone
// holding the order id, used for QR-code scan verification.
type OrderVerification struct {
	OrderID        string    `json:"orderId"`
	EventTitle     string    `json:"eventTitle"`
	EventSubtitle  string    `json:"eventSubtitle,omitempty"`
	EventDate      time.Time `json:"eventDate"`
	EventLocation  string    `json:"eventLocation,omitempty"`
	OrganizerName  string    `json:"organizerName"`
	Quantity       int       `json:"quantity"`
	TotalAmount    string    `json:"totalAmount"`
	Currency       string    `json:"currency"`
	PaymentMethod  string    `json:"paymentMethod"`
	CreatedAt      time.Time `json:"createdAt"`
}
