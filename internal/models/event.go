package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event statuses.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
)

// PriceCategory is a named ticket tier. QuantityCap of 0 means uncapped.
type PriceCategory struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	QuantityCap int    `json:"quantityCap,omitempty"`
}

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID              string          `bun:"id,pk" json:"id"`
	OrganizerID     string          `bun:"organizer_id,notnull" json:"organizerId"`
	Title           string          `bun:"title,notnull" json:"title"`
	Subtitle        string          `bun:"subtitle" json:"subtitle,omitempty"`
	Description     string          `bun:"description" json:"description,omitempty"`
	Currency        string          `bun:"currency,notnull" json:"currency"`
	Location        string          `bun:"location" json:"location,omitempty"`
	StartDate       time.Time       `bun:"start_date" json:"startDate"`
	PriceCategories []PriceCategory `bun:"price_categories,type:jsonb,nullzero" json:"priceCategories,omitempty"`
	IsFree          bool            `bun:"is_free,notnull" json:"isFree"`
	Status          string          `bun:"status,notnull" json:"status"`
	CreatedAt       time.Time       `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

// PriceCategoryByName returns the embedded category with the given name, if any.
func (e *Event) PriceCategoryByName(name string) (PriceCategory, bool) {
	for _, pc := range e.PriceCategories {
		if pc.Name == name {
			return pc, true
		}
	}
	return PriceCategory{}, false
}
