package repositories

import (
	"context"

	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

// TagSignalRepository is the read interface over the periodically
// refreshed per-tag aggregates. A tag with no aggregate row yields a
// nil entry rather than an error; callers substitute neutral defaults.
type TagSignalRepository interface {
	// GetUsageStats returns usage stats for one tag, nil if absent
	GetUsageStats(ctx context.Context, tag string) (*entities.TagUsageStats, error)

	// GetUsageStatsBatch returns usage stats keyed by tag. Tags
	// without a row are simply absent from the map.
	GetUsageStatsBatch(ctx context.Context, tags []string) (map[string]*entities.TagUsageStats, error)

	// GetConversionMetrics returns conversion metrics for one tag,
	// nil if absent
	GetConversionMetrics(ctx context.Context, tag string) (*entities.TagConversionMetrics, error)

	// GetConversionMetricsBatch returns conversion metrics keyed by
	// tag, absent tags omitted
	GetConversionMetricsBatch(ctx context.Context, tags []string) (map[string]*entities.TagConversionMetrics, error)
}
