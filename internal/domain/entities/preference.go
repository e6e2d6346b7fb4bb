package entities

import (
	"time"
)

// UserTagPreference is a user's affinity for one tag, recomputed from
// the interaction window on every request. It is a derived view and is
// never persisted by the engine.
type UserTagPreference struct {
	UserID          string    `json:"user_id"`
	Tag             string    `json:"tag"`
	ViewCount       int       `json:"view_count"`
	ClickCount      int       `json:"click_count"`
	LastViewed      time.Time `json:"last_viewed"`
	PreferenceScore float64   `json:"preference_score"`
}
