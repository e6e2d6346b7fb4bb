package services

import (
	"context"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/providers"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
	apperrors "github.com/savdohub/ranking-engine/pkg/errors"
)

// InteractionTrackingService ingests interaction events. Persistence
// and event-bus fan-out run in the background; a tracking failure is
// logged and never reaches the caller.
type InteractionTrackingService struct {
	repo repositories.InteractionRepository
	bus  providers.EventBus
}

// NewInteractionTrackingService creates a new tracking service. bus
// may be nil when no aggregate refresher is wired.
func NewInteractionTrackingService(repo repositories.InteractionRepository, bus providers.EventBus) *InteractionTrackingService {
	return &InteractionTrackingService{repo: repo, bus: bus}
}

// Track validates and records one interaction. Only the request shape
// is validated synchronously; the writes happen detached.
func (s *InteractionTrackingService) Track(ctx context.Context, interaction *entities.Interaction) error {
	if interaction == nil {
		return apperrors.NewValidationError("interaction is required")
	}
	if strings.TrimSpace(interaction.ListingID) == "" {
		return apperrors.NewValidationError("listing_id is required")
	}
	if !interaction.Type.Valid() {
		return apperrors.NewValidationError("unknown interaction type")
	}

	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}

	// Use a fresh context since the request context might be cancelled
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), trackingTimeout)
		defer cancel()

		if err := s.repo.Record(bgCtx, interaction); err != nil {
			zlog.Warn().Err(err).
				Str("listing_id", interaction.ListingID).
				Str("type", string(interaction.Type)).
				Msg("failed to record interaction")
		}

		if s.bus != nil {
			if err := s.bus.Publish(bgCtx, providers.EventChannelInteractions, interaction); err != nil {
				zlog.Warn().Err(err).Msg("failed to publish interaction event")
			}
		}
	}()

	return nil
}
