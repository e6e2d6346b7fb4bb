package entities

import (
	"time"
)

// TagUsageStats tracks how often a tag is applied and how often it
// satisfies a search. Written by the external aggregate-refresh job,
// read-only here.
type TagUsageStats struct {
	Tag         string     `json:"tag" db:"tag"`
	UsageCount  int        `json:"usage_count" db:"usage_count"`
	SearchCount int        `json:"search_count" db:"search_count"`
	MatchCount  int        `json:"match_count" db:"match_count"`
	LastUsed    *time.Time `json:"last_used,omitempty" db:"last_used"`
}

// MatchRate returns match_count/search_count and whether any search
// data exists. Callers substitute the neutral 0.5 default when it
// does not.
func (s *TagUsageStats) MatchRate() (float64, bool) {
	if s == nil || s.SearchCount <= 0 {
		return 0, false
	}
	return float64(s.MatchCount) / float64(s.SearchCount), true
}

// TagConversionMetrics is the funnel performance of a tag across all
// listings that carry it. Refreshed out-of-band, read-only here.
type TagConversionMetrics struct {
	Tag          string     `json:"tag" db:"tag"`
	ViewCount    int        `json:"view_count" db:"view_count"`
	ClickCount   int        `json:"click_count" db:"click_count"`
	ContactCount int        `json:"contact_count" db:"contact_count"`
	OrderCount   int        `json:"order_count" db:"order_count"`
	LastUsed     *time.Time `json:"last_used,omitempty" db:"last_used"`
}

// ClickThroughRate returns clicks per view and whether view data exists
func (m *TagConversionMetrics) ClickThroughRate() (float64, bool) {
	if m == nil || m.ViewCount <= 0 {
		return 0, false
	}
	return float64(m.ClickCount) / float64(m.ViewCount), true
}

// ContactRate returns contacts per click and whether click data exists
func (m *TagConversionMetrics) ContactRate() (float64, bool) {
	if m == nil || m.ClickCount <= 0 {
		return 0, false
	}
	return float64(m.ContactCount) / float64(m.ClickCount), true
}

// OrderConversionRate returns orders per contact and whether contact
// data exists
func (m *TagConversionMetrics) OrderConversionRate() (float64, bool) {
	if m == nil || m.ContactCount <= 0 {
		return 0, false
	}
	return float64(m.OrderCount) / float64(m.ContactCount), true
}
