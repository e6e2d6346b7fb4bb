package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
	"github.com/savdohub/ranking-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/savdohub/ranking-engine/pkg/errors"
)

// TagSignalAdapter implements TagSignalRepository over the aggregate
// tables refreshed by the external job. Missing rows are returned as
// nil entries, never as errors.
type TagSignalAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTagSignalAdapter creates a new tag signal adapter
func NewTagSignalAdapter(client *postgres.Client) repositories.TagSignalRepository {
	return &TagSignalAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetUsageStats retrieves usage stats for one tag, nil if absent
func (a *TagSignalAdapter) GetUsageStats(ctx context.Context, tag string) (*entities.TagUsageStats, error) {
	stats, err := a.GetUsageStatsBatch(ctx, []string{tag})
	if err != nil {
		return nil, err
	}
	return stats[tag], nil
}

// GetUsageStatsBatch retrieves usage stats keyed by tag
func (a *TagSignalAdapter) GetUsageStatsBatch(ctx context.Context, tags []string) (map[string]*entities.TagUsageStats, error) {
	result := make(map[string]*entities.TagUsageStats, len(tags))
	if len(tags) == 0 {
		return result, nil
	}

	query, args, err := a.db.Select("tag", "usage_count", "search_count", "match_count", "last_used").
		From("tag_usage_stats").
		Where(goqu.Ex{"tag": tags}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build usage stats query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query usage stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		stats := &entities.TagUsageStats{}
		var lastUsed sql.NullTime

		err := rows.Scan(
			&stats.Tag,
			&stats.UsageCount,
			&stats.SearchCount,
			&stats.MatchCount,
			&lastUsed,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan usage stats", err)
		}

		if lastUsed.Valid {
			t := lastUsed.Time
			stats.LastUsed = &t
		}
		result[stats.Tag] = stats
	}

	return result, nil
}

// GetConversionMetrics retrieves conversion metrics for one tag, nil if absent
func (a *TagSignalAdapter) GetConversionMetrics(ctx context.Context, tag string) (*entities.TagConversionMetrics, error) {
	metrics, err := a.GetConversionMetricsBatch(ctx, []string{tag})
	if err != nil {
		return nil, err
	}
	return metrics[tag], nil
}

// GetConversionMetricsBatch retrieves conversion metrics keyed by tag
func (a *TagSignalAdapter) GetConversionMetricsBatch(ctx context.Context, tags []string) (map[string]*entities.TagConversionMetrics, error) {
	result := make(map[string]*entities.TagConversionMetrics, len(tags))
	if len(tags) == 0 {
		return result, nil
	}

	query, args, err := a.db.Select("tag", "view_count", "click_count", "contact_count", "order_count", "last_used").
		From("tag_conversion_metrics").
		Where(goqu.Ex{"tag": tags}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build conversion metrics query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query conversion metrics", err)
	}
	defer rows.Close()

	for rows.Next() {
		metrics := &entities.TagConversionMetrics{}
		var lastUsed sql.NullTime

		err := rows.Scan(
			&metrics.Tag,
			&metrics.ViewCount,
			&metrics.ClickCount,
			&metrics.ContactCount,
			&metrics.OrderCount,
			&lastUsed,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan conversion metrics", err)
		}

		if lastUsed.Valid {
			t := lastUsed.Time
			metrics.LastUsed = &t
		}
		result[metrics.Tag] = metrics
	}

	return result, nil
}
