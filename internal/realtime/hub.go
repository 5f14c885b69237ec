package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/campus-kds/canteen-backend/pkg/logger"
	"github.com/campus-kds/canteen-backend/pkg/metrics"
)

// Event is one realtime message pushed to connected clients.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Broadcaster pushes lifecycle events to every connected observer.
// Delivery is best-effort: no acknowledgement, no replay.
type Broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any)
}

// Subscriber is one connected observer. Events arrive on C in emission
// order; slow consumers have events dropped rather than blocking the
// emitting request.
type Subscriber struct {
	C     chan Event
	close func()
	once  sync.Once
}

// Close detaches the subscriber from the hub.
func (s *Subscriber) Close() {
	s.once.Do(s.close)
}

// Hub fans events out to in-process subscribers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscriber]struct{}
	buffer  int
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
}

// NewHub builds a hub with the given per-subscriber buffer size.
func NewHub(buffer int, logg *logger.Logger, m *metrics.OrderMetrics) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:    map[*Subscriber]struct{}{},
		buffer:  buffer,
		logg:    logg,
		metrics: m,
	}
}

// Subscribe attaches a new observer. The caller must Close it when the
// connection ends.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan Event, h.buffer)}
	sub.close = func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		close(sub.C)
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// SubscriberCount returns the number of attached observers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast marshals the payload and delivers it to every subscriber.
// With zero subscribers this is a silent no-op. A marshal failure is
// logged and the event dropped; the triggering operation never fails.
func (h *Hub) Broadcast(ctx context.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		if h.logg != nil {
			h.logg.Error(ctx, "realtime.marshal_failed", err)
		}
		return
	}
	h.dispatch(ctx, Event{Name: event, Data: data})
}

// dispatch delivers an already-encoded event locally. Full subscriber
// buffers drop the event for that subscriber only.
func (h *Hub) dispatch(ctx context.Context, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.C <- evt:
		default:
			if h.logg != nil {
				h.logg.Warn(h.logg.WithField(ctx, "event", evt.Name), "realtime.subscriber_lagging")
			}
		}
	}
	h.metrics.IncEventBroadcast(evt.Name)
}
