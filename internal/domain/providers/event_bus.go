package providers

import (
	"context"

	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

// EventBus fans interaction events out to the external aggregate
// refresher. The engine only publishes; stream processing of these
// events happens elsewhere.
type EventBus interface {
	// Publish publishes an interaction to all subscribers
	Publish(ctx context.Context, channel string, interaction *entities.Interaction) error

	// Subscribe subscribes to interactions on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.Interaction, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for interaction fan-out
const (
	// EventChannelInteractions is the channel carrying every interaction
	EventChannelInteractions = "interactions:all"

	// EventChannelTypePrefix is the prefix for per-stage channels
	EventChannelTypePrefix = "interactions:"
)

// GetTypeChannel returns the channel name for a single funnel stage
func GetTypeChannel(t entities.InteractionType) string {
	return EventChannelTypePrefix + string(t)
}
