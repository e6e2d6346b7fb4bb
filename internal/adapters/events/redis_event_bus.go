package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/providers"
	redisclient "github.com/savdohub/ranking-engine/internal/infrastructure/clients/redis"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub.
// It carries interaction events to the external aggregate-refresh job;
// delivery is best-effort.
type RedisEventBus struct {
	client        *redisclient.Client
	subscriptions map[string]*redis.PubSub
	subscribers   map[string]map[chan *entities.Interaction]struct{}
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
		subscribers:   make(map[string]map[chan *entities.Interaction]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an interaction to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, interaction *entities.Interaction) error {
	data, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish interaction: %w", err)
	}

	return nil
}

// Subscribe subscribes to interactions on a channel
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.Interaction, error) {
	b.mu.Lock()

	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		b.subscriptions[channel] = pubsub
		go b.receiveMessages(channel, pubsub)
	}

	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.Interaction]struct{})
	}

	eventChan := make(chan *entities.Interaction, 100)
	b.subscribers[channel][eventChan] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

// Unsubscribe unsubscribes from a channel entirely
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pubsub, exists := b.subscriptions[channel]; exists {
		if err := pubsub.Close(); err != nil {
			return fmt.Errorf("failed to close subscription: %w", err)
		}
		delete(b.subscriptions, channel)
	}

	for ch := range b.subscribers[channel] {
		close(ch)
	}
	delete(b.subscribers, channel)

	return nil
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for channel, pubsub := range b.subscriptions {
		if err := pubsub.Close(); err != nil {
			zlog.Warn().Err(err).Str("channel", channel).Msg("failed to close subscription")
		}
		for ch := range b.subscribers[channel] {
			close(ch)
		}
	}
	b.subscriptions = make(map[string]*redis.PubSub)
	b.subscribers = make(map[string]map[chan *entities.Interaction]struct{})

	return nil
}

func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		interaction := &entities.Interaction{}
		if err := json.Unmarshal([]byte(msg.Payload), interaction); err != nil {
			zlog.Warn().Err(err).Str("channel", channel).Msg("failed to unmarshal interaction event")
			continue
		}

		b.mu.RLock()
		for ch := range b.subscribers[channel] {
			select {
			case ch <- interaction:
			default:
				// Subscriber is not keeping up; drop rather than block.
			}
		}
		b.mu.RUnlock()
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, eventChan chan *entities.Interaction) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, exists := b.subscribers[channel]; exists {
		if _, ok := subs[eventChan]; ok {
			delete(subs, eventChan)
			close(eventChan)
		}
	}
}
