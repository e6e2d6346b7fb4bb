package entities

import (
	"time"
)

// Listing is the read-only snapshot of a marketplace listing that the
// engine scores. The surrounding application owns its lifecycle; the
// engine never mutates it.
type Listing struct {
	ID          string    `json:"id" db:"id"`
	SellerID    string    `json:"seller_id" db:"seller_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Tags        []string  `json:"tags,omitempty" db:"-"`
	Price       float64   `json:"price" db:"price"`
	Currency    string    `json:"currency" db:"currency"`
	ImageCount  int       `json:"image_count" db:"image_count"`
	IsBoosted   bool      `json:"is_boosted" db:"is_boosted"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
