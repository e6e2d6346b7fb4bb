package entities

import (
	"time"
)

// HealthStatus buckets the overall health score
type HealthStatus string

const (
	HealthStatusHealthy          HealthStatus = "healthy"
	HealthStatusNeedsImprovement HealthStatus = "needs_improvement"
	HealthStatusCritical         HealthStatus = "critical"
)

// HealthFactors breaks the health score into its bands. The caps are
// conversion 30, engagement 30, completeness 20, ranking 20.
type HealthFactors struct {
	Conversion   int `json:"conversion"`
	Engagement   int `json:"engagement"`
	Completeness int `json:"completeness"`
	Ranking      int `json:"ranking"`
}

// HealthScore is the 0-100 summary of how a listing is performing,
// computed fresh on every request. History snapshots are an external
// concern; this is never the persisted source of truth.
type HealthScore struct {
	ListingID       string        `json:"listing_id"`
	Score           int           `json:"score"`
	Status          HealthStatus  `json:"status"`
	Factors         HealthFactors `json:"factors"`
	Recommendations []string      `json:"recommendations"`
	ComputedAt      time.Time     `json:"computed_at"`
}
