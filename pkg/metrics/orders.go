package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks the order lifecycle and the event fan-out.
type OrderMetrics struct {
	created          prometheus.Counter
	statusChanges    *prometheus.CounterVec
	completed        prometheus.Counter
	stockAdjustFails prometheus.Counter
	eventsBroadcast  *prometheus.CounterVec
}

// NewOrderMetrics registers the lifecycle metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canteen_orders_created_total",
		Help: "Orders accepted by the platform.",
	})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "canteen_order_status_changes_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canteen_orders_completed_total",
		Help: "Orders that reached picked_up.",
	})
	stockAdjustFails := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canteen_stock_adjust_failures_total",
		Help: "Stock decrements that failed and were deferred to reconciliation.",
	})
	eventsBroadcast := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "canteen_events_broadcast_total",
		Help: "Realtime events pushed to subscribers, by event name.",
	}, []string{"event"})
	reg.MustRegister(created, statusChanges, completed, stockAdjustFails, eventsBroadcast)
	return &OrderMetrics{
		created:          created,
		statusChanges:    statusChanges,
		completed:        completed,
		stockAdjustFails: stockAdjustFails,
		eventsBroadcast:  eventsBroadcast,
	}
}

// IncCreated counts a newly accepted order.
func (m *OrderMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// IncStatusChange counts a transition into the given status.
func (m *OrderMetrics) IncStatusChange(status string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncCompleted counts an order handed over to the student.
func (m *OrderMetrics) IncCompleted() {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.Inc()
}

// IncStockAdjustFailure counts a stock decrement left for the
// reconciliation job.
func (m *OrderMetrics) IncStockAdjustFailure() {
	if m == nil || m.stockAdjustFails == nil {
		return
	}
	m.stockAdjustFails.Inc()
}

// IncEventBroadcast counts a realtime event by name.
func (m *OrderMetrics) IncEventBroadcast(event string) {
	if m == nil || m.eventsBroadcast == nil {
		return
	}
	m.eventsBroadcast.WithLabelValues(normalizeLabel(event)).Inc()
}
