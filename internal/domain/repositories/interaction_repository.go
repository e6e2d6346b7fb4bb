package repositories

import (
	"context"
	"time"

	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

// InteractionRepository records and reads raw interaction events
type InteractionRepository interface {
	// Record appends one interaction row
	Record(ctx context.Context, interaction *entities.Interaction) error

	// ListByUser returns a user's interactions since the given time,
	// newest first
	ListByUser(ctx context.Context, userID string, since time.Time) ([]*entities.Interaction, error)

	// GetListingFunnel returns per-stage counts for one listing
	// since the given time. A listing with no interactions yields
	// zero counts, not an error.
	GetListingFunnel(ctx context.Context, listingID string, since time.Time) (*entities.ListingFunnel, error)
}
