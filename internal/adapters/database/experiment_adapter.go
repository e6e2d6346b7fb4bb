package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
	"github.com/savdohub/ranking-engine/internal/infrastructure/clients/postgres"
	apperrors "github.com/savdohub/ranking-engine/pkg/errors"
)

// ExperimentAdapter implements ExperimentRepository over Postgres.
// Exposure rows are analytics-only; assignment never reads them.
type ExperimentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewExperimentAdapter creates a new experiment adapter
func NewExperimentAdapter(client *postgres.Client) repositories.ExperimentRepository {
	return &ExperimentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// RecordExposure appends one exposure row
func (a *ExperimentAdapter) RecordExposure(ctx context.Context, exposure *entities.Experiment) error {
	if exposure.ID == "" {
		exposure.ID = uuid.New().String()
	}
	if exposure.CreatedAt.IsZero() {
		exposure.CreatedAt = time.Now()
	}

	var metadata []byte
	if len(exposure.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(exposure.Metadata)
		if err != nil {
			return apperrors.NewInternalError("failed to marshal exposure metadata", err)
		}
	}

	record := goqu.Record{
		"id":              exposure.ID,
		"experiment_id":   exposure.ExperimentID,
		"experiment_type": string(exposure.Type),
		"variant":         string(exposure.Variant),
		"subject_id":      exposure.SubjectID,
		"listing_id":      sql.NullString{String: exposure.ListingID, Valid: exposure.ListingID != ""},
		"metadata":        metadata,
		"converted":       exposure.Converted,
		"created_at":      exposure.CreatedAt,
	}

	query, args, err := a.db.Insert("experiment_exposures").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build exposure insert", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to record exposure", err)
	}

	return nil
}

// MarkConverted flags the most recent matching exposure as converted
func (a *ExperimentAdapter) MarkConverted(ctx context.Context, experimentID, subjectID string, experimentType entities.ExperimentType) error {
	query := `
		UPDATE experiment_exposures
		SET converted = TRUE, converted_at = NOW()
		WHERE id = (
			SELECT id FROM experiment_exposures
			WHERE experiment_id = $1 AND subject_id = $2 AND experiment_type = $3
			ORDER BY created_at DESC
			LIMIT 1
		)
	`

	_, err := a.client.DB().ExecContext(ctx, query, experimentID, subjectID, string(experimentType))
	if err != nil {
		return apperrors.NewInternalError("failed to mark exposure converted", err)
	}

	return nil
}

// CountByVariant tallies exposures and conversions per arm
func (a *ExperimentAdapter) CountByVariant(ctx context.Context, experimentID string, experimentType entities.ExperimentType) (map[entities.Variant]*entities.VariantCounts, error) {
	query := `
		SELECT variant,
			COUNT(*) AS views,
			COUNT(*) FILTER (WHERE converted) AS orders
		FROM experiment_exposures
		WHERE experiment_id = $1 AND experiment_type = $2
		GROUP BY variant
	`

	rows, err := a.client.DB().QueryContext(ctx, query, experimentID, string(experimentType))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count exposures", err)
	}
	defer rows.Close()

	counts := make(map[entities.Variant]*entities.VariantCounts)
	for rows.Next() {
		var variant string
		c := &entities.VariantCounts{}

		if err := rows.Scan(&variant, &c.Views, &c.Orders); err != nil {
			return nil, apperrors.NewInternalError("failed to scan exposure counts", err)
		}
		counts[entities.Variant(variant)] = c
	}

	return counts, nil
}
