package repositories

import (
	"context"

	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

// ExperimentRepository persists exposure rows for analytics. Variant
// assignment never reads from it; the rows only feed the results
// aggregation.
type ExperimentRepository interface {
	// RecordExposure appends one exposure row
	RecordExposure(ctx context.Context, exposure *entities.Experiment) error

	// MarkConverted flags the most recent matching exposure for the
	// subject as converted. Missing exposures are not an error;
	// conversions may race ahead of their exposure write.
	MarkConverted(ctx context.Context, experimentID, subjectID string, experimentType entities.ExperimentType) error

	// CountByVariant tallies exposures and conversions per arm
	CountByVariant(ctx context.Context, experimentID string, experimentType entities.ExperimentType) (map[entities.Variant]*entities.VariantCounts, error)
}
