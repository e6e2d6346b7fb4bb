package repositories

import (
	"context"

	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

// ListingRepository reads listing snapshots. The engine never writes
// listings; CRUD belongs to the surrounding application.
type ListingRepository interface {
	// GetByID returns a single listing or a NOT_FOUND AppError
	GetByID(ctx context.Context, id string) (*entities.Listing, error)

	// GetByIDs returns the listings that exist for the given ids,
	// in no particular order. Missing ids are skipped, not errors.
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error)

	// ListRecent returns active listings newest first. Used as the
	// candidate fallback when no search backend is available.
	ListRecent(ctx context.Context, limit int) ([]*entities.Listing, error)
}
