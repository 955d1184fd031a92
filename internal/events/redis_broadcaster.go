package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// Broadcaster pushes status updates to live listeners.
type Broadcaster interface {
	Broadcast(ctx context.Context, update StatusUpdate) error
}

// RedisBroadcaster publishes status updates on a per-order Redis channel.
type RedisBroadcaster struct {
	client redis.UniversalClient
}

// NewRedisBroadcaster wraps a go-redis client.
func NewRedisBroadcaster(client redis.UniversalClient) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

// OrderChannel names the channel carrying updates for one order group.
func OrderChannel(orderGroupID string) string {
	return "orders:" + orderGroupID
}

// Broadcast publishes update as JSON on the order's channel.
func (b *RedisBroadcaster) Broadcast(ctx context.Context, update StatusUpdate) error {
	if b == nil || b.client == nil {
		return nil
	}
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, OrderChannel(update.OrderGroupID), body).Err()
}

// StatusUpdateFrom builds the broadcast message for a status-changed event.
func StatusUpdateFrom(event Event) (StatusUpdate, bool) {
	payload, ok := event.Payload.(domain.TicketStatusChangedPayload)
	if !ok {
		return StatusUpdate{}, false
	}
	return StatusUpdate{
		EventID:      event.ID,
		TicketID:     event.EntityID,
		OrderGroupID: event.OrderGroupID,
		Stream:       event.Stream,
		From:         payload.From,
		To:           payload.To,
		OccurredAt:   event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}, true
}
