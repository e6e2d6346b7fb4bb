package entities

import (
	"time"
)

// InteractionType is a stage of the engagement funnel
type InteractionType string

const (
	InteractionView    InteractionType = "view"
	InteractionClick   InteractionType = "click"
	InteractionContact InteractionType = "contact"
	InteractionOrder   InteractionType = "order"
)

// Valid reports whether t is a known funnel stage
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionClick, InteractionContact, InteractionOrder:
		return true
	}
	return false
}

// Interaction is a single timestamped user action against a listing.
// It is the ground-truth signal every aggregate in the engine is
// derived from.
type Interaction struct {
	ID          string          `json:"id" db:"id"`
	ListingID   string          `json:"listing_id" db:"listing_id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Type        InteractionType `json:"type" db:"interaction_type"`
	MatchedTags []string        `json:"matched_tags,omitempty" db:"-"`
	Query       string          `json:"query,omitempty" db:"query"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// ListingFunnel holds per-listing interaction counts over a window
type ListingFunnel struct {
	ListingID string `json:"listing_id" db:"listing_id"`
	Views     int    `json:"views" db:"views"`
	Clicks    int    `json:"clicks" db:"clicks"`
	Contacts  int    `json:"contacts" db:"contacts"`
	Orders    int    `json:"orders" db:"orders"`
}

// TotalEngagement returns the engagement volume used by the health score
func (f *ListingFunnel) TotalEngagement() int {
	return f.Views + f.Clicks + f.Contacts
}

// ConversionRate returns orders per view, 0 when there are no views
func (f *ListingFunnel) ConversionRate() float64 {
	if f.Views == 0 {
		return 0
	}
	return float64(f.Orders) / float64(f.Views)
}
