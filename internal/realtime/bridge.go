package realtime

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/campus-kds/canteen-backend/pkg/logger"
)

// redisBus is the slice of the Redis client the bridge needs.
type redisBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) *goredis.PubSub
}

// Bridge replicates events across API processes through a Redis pub/sub
// channel. Every process dispatches received events into its local hub,
// so kitchen displays connected to different instances stay in sync.
type Bridge struct {
	hub     *Hub
	bus     redisBus
	channel string
	logg    *logger.Logger
}

// NewBridge wraps the hub with cross-process replication.
func NewBridge(hub *Hub, bus redisBus, channel string, logg *logger.Logger) *Bridge {
	return &Bridge{hub: hub, bus: bus, channel: channel, logg: logg}
}

// Broadcast publishes the event to Redis. The local hub is fed by the
// Run loop's subscription, so a successful publish is not dispatched
// twice; if Redis is down the event still reaches local subscribers.
func (b *Bridge) Broadcast(ctx context.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		if b.logg != nil {
			b.logg.Error(ctx, "realtime.marshal_failed", err)
		}
		return
	}

	evt := Event{Name: event, Data: data}
	encoded, err := json.Marshal(evt)
	if err != nil {
		if b.logg != nil {
			b.logg.Error(ctx, "realtime.envelope_marshal_failed", err)
		}
		return
	}

	if err := b.bus.Publish(ctx, b.channel, encoded); err != nil {
		if b.logg != nil {
			b.logg.Error(ctx, "realtime.publish_failed", err)
		}
		b.hub.dispatch(ctx, evt)
	}
}

// Run consumes the Redis channel until the context is cancelled,
// feeding received events into the local hub.
func (b *Bridge) Run(ctx context.Context) error {
	pubsub := b.bus.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				if b.logg != nil {
					b.logg.Error(ctx, "realtime.decode_failed", err)
				}
				continue
			}
			b.hub.dispatch(ctx, evt)
		}
	}
}
