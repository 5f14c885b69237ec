package realtime

import (
	"context"
	"encoding/json"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub(4, nil, nil)
	first := hub.Subscribe()
	second := hub.Subscribe()
	defer first.Close()
	defer second.Close()

	hub.Broadcast(context.Background(), "order:new", map[string]any{"tokenNumber": 7})

	for _, sub := range []*Subscriber{first, second} {
		select {
		case evt := <-sub.C:
			assert.Equal(t, "order:new", evt.Name)
			var payload map[string]any
			require.NoError(t, json.Unmarshal(evt.Data, &payload))
			assert.Equal(t, float64(7), payload["tokenNumber"])
		default:
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestHubBroadcastWithZeroSubscribersIsNoop(t *testing.T) {
	hub := NewHub(4, nil, nil)
	hub.Broadcast(context.Background(), "menu:update", map[string]string{"message": "Menu has been updated"})
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestHubPreservesEmissionOrderPerSubscriber(t *testing.T) {
	hub := NewHub(8, nil, nil)
	sub := hub.Subscribe()
	defer sub.Close()

	for i := 0; i < 3; i++ {
		hub.Broadcast(context.Background(), "order:update", map[string]int{"seq": i})
	}

	for i := 0; i < 3; i++ {
		evt := <-sub.C
		var payload map[string]int
		require.NoError(t, json.Unmarshal(evt.Data, &payload))
		assert.Equal(t, i, payload["seq"])
	}
}

func TestHubDropsEventsForLaggingSubscriber(t *testing.T) {
	hub := NewHub(1, nil, nil)
	slow := hub.Subscribe()
	defer slow.Close()

	hub.Broadcast(context.Background(), "order:update", map[string]int{"seq": 0})
	hub.Broadcast(context.Background(), "order:update", map[string]int{"seq": 1})

	evt := <-slow.C
	var payload map[string]int
	require.NoError(t, json.Unmarshal(evt.Data, &payload))
	assert.Equal(t, 0, payload["seq"])

	select {
	case <-slow.C:
		t.Fatal("expected second event to be dropped")
	default:
	}
}

func TestSubscriberCloseDetaches(t *testing.T) {
	hub := NewHub(4, nil, nil)
	s := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	s.Close()
	s.Close() // second close must not panic
	assert.Equal(t, 0, hub.SubscriberCount())
}

type fakeBus struct {
	published [][]byte
	fail      error
}

func (f *fakeBus) Publish(_ context.Context, _ string, payload []byte) error {
	if f.fail != nil {
		return f.fail
	}
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeBus) Subscribe(_ context.Context, _ string) *goredis.PubSub {
	return nil
}

func TestBridgePublishesEnvelope(t *testing.T) {
	hub := NewHub(4, nil, nil)
	bus := &fakeBus{}
	bridge := NewBridge(hub, bus, "canteen:events", nil)
	local := hub.Subscribe()
	defer local.Close()

	bridge.Broadcast(context.Background(), "order:new", map[string]int{"tokenNumber": 12})

	require.Len(t, bus.published, 1)
	var evt Event
	require.NoError(t, json.Unmarshal(bus.published[0], &evt))
	assert.Equal(t, "order:new", evt.Name)

	// the local hub is fed by the subscription loop, not by Broadcast
	select {
	case <-local.C:
		t.Fatal("publish success must not double-deliver locally")
	default:
	}
}

func TestBridgeFallsBackToLocalDispatchWhenRedisDown(t *testing.T) {
	hub := NewHub(4, nil, nil)
	bus := &fakeBus{fail: context.DeadlineExceeded}
	bridge := NewBridge(hub, bus, "canteen:events", nil)
	local := hub.Subscribe()
	defer local.Close()

	bridge.Broadcast(context.Background(), "order:update", map[string]int{"tokenNumber": 3})

	select {
	case evt := <-local.C:
		assert.Equal(t, "order:update", evt.Name)
	default:
		t.Fatal("expected local fallback delivery")
	}
}
