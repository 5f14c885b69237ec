package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsExportCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("stock-reconcile", 250*time.Millisecond)
	m.IncSuccess("stock-reconcile")
	m.IncFailure("stock-reconcile")
	m.IncFailure("")

	require.Equal(t, float64(1), testutil.ToFloat64(m.success.WithLabelValues("stock-reconcile")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues("stock-reconcile")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues("unknown")))

	count, err := testutil.GatherAndCount(reg, "canteen_job_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCronJobMetricsNoopWithoutRegisterer(t *testing.T) {
	var m *CronJobMetrics
	m.IncSuccess("job")
	m.ObserveDuration("job", time.Second)

	m = NewCronJobMetrics(nil)
	m.IncFailure("job")
}

func TestOrderMetricsLifecycleCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)

	m.IncCreated()
	m.IncCreated()
	m.IncStatusChange("preparing")
	m.IncCompleted()
	m.IncStockAdjustFailure()
	m.IncEventBroadcast("order:update")
	m.IncEventBroadcast("order:update")
	m.IncEventBroadcast("order:new")

	require.Equal(t, float64(2), testutil.ToFloat64(m.created))
	require.Equal(t, float64(1), testutil.ToFloat64(m.statusChanges.WithLabelValues("preparing")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.completed))
	require.Equal(t, float64(1), testutil.ToFloat64(m.stockAdjustFails))
	require.Equal(t, float64(2), testutil.ToFloat64(m.eventsBroadcast.WithLabelValues("order:update")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.eventsBroadcast.WithLabelValues("order:new")))
}

func TestOrderMetricsNoopWithoutRegisterer(t *testing.T) {
	var m *OrderMetrics
	m.IncCreated()
	m.IncEventBroadcast("order:new")

	m = NewOrderMetrics(nil)
	m.IncCompleted()
}
