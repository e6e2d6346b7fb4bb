package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

type fakeCache struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (f *fakeCache) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeEventBus struct {
	events chan *entities.Interaction
}

func (f *fakeEventBus) Publish(ctx context.Context, channel string, interaction *entities.Interaction) error {
	f.events <- interaction
	return nil
}

func (f *fakeEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.Interaction, error) {
	return f.events, nil
}

func (f *fakeEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (f *fakeEventBus) Close() error { return nil }

func TestCacheInvalidation_OrderDropsTagSnapshots(t *testing.T) {
	cache := &fakeCache{}
	bus := &fakeEventBus{events: make(chan *entities.Interaction, 1)}

	svc := NewCacheInvalidationService(cache, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	bus.events <- &entities.Interaction{
		ListingID:   "l1",
		Type:        entities.InteractionOrder,
		MatchedTags: []string{"telegram-bot", "telefon"},
	}

	assert.Eventually(t, func() bool {
		keys := cache.deletedKeys()
		return len(keys) == 2 &&
			keys[0] == "tag:quality:telegram-bot" &&
			keys[1] == "tag:quality:telefon"
	}, time.Second, 10*time.Millisecond)
}

func TestCacheInvalidation_ViewsAreIgnored(t *testing.T) {
	cache := &fakeCache{}
	bus := &fakeEventBus{events: make(chan *entities.Interaction, 1)}

	svc := NewCacheInvalidationService(cache, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	bus.events <- &entities.Interaction{
		ListingID:   "l1",
		Type:        entities.InteractionView,
		MatchedTags: []string{"telefon"},
	}

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, cache.deletedKeys())
}
