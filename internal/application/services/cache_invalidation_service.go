package services

import (
	"context"
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/providers"
)

// CacheInvalidationService drops per-tag quality snapshots when fresh
// interactions touch those tags, so the next quality read recomputes
// against the updated aggregates instead of waiting out the TTL.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for interaction events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelInteractions)
	if err != nil {
		return fmt.Errorf("failed to subscribe to interactions: %w", err)
	}

	go s.processEvents(eventChan)
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.Interaction) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case interaction := <-eventChan:
			if interaction == nil {
				continue
			}
			s.handleInteraction(interaction)
		}
	}
}

// handleInteraction invalidates the quality snapshot of every tag the
// interaction touched. Only orders and contacts move the aggregates
// enough to matter; views and clicks ride out the TTL.
func (s *CacheInvalidationService) handleInteraction(interaction *entities.Interaction) {
	if interaction.Type != entities.InteractionOrder && interaction.Type != entities.InteractionContact {
		return
	}
	if len(interaction.MatchedTags) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, tag := range interaction.MatchedTags {
		if err := s.cache.Delete(ctx, qualityCacheKey(tag)); err != nil {
			zlog.Warn().Err(err).Str("tag", tag).Msg("failed to invalidate quality snapshot")
		}
	}
}
