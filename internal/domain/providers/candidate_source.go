package providers

import (
	"context"

	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

// CandidateSource retrieves the candidate set for a query before the
// engine scores it. Backed by the external search index; the engine
// defines scoring, not index storage.
type CandidateSource interface {
	// Search returns listing snapshots loosely matching the query
	Search(ctx context.Context, query string, limit int) ([]*entities.Listing, error)
}
