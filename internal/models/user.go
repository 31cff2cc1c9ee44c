package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:"id,pk" json:"id"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	FirstName string    `bun:"first_name" json:"firstName"`
	LastName  string    `bun:"last_name" json:"lastName"`
	// Per-provider payout identifiers. Checkout for an event requires the
	// organizer to hold the identifier for whichever provider the event
	// routes to; absence is a hard error, not a silent fallback.
	SubaccountCode  string    `bun:"subaccount_code,nullzero" json:"subaccountCode,omitempty"`
	StripeAccountID string    `bun:"stripe_account_id,nullzero" json:"stripeAccountId,omitempty"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// FullName joins the first and last name for display.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
