package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Sweep("notified")
	m.Sweep("notified")
	m.Notified("individual", 2)
	m.Notified("grouped", 0)
	m.QueryFailed("overdue")
	m.Recurrence("created")
	m.Pending(1, 2, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Sweeps.WithLabelValues("notified")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Notifications.WithLabelValues("individual")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Notifications.WithLabelValues("grouped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryFailures.WithLabelValues("overdue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recurrences.WithLabelValues("created")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PendingByState.WithLabelValues("upcoming")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Sweep("x")
		m.Notified("x", 1)
		m.QueryFailed("x")
		m.Recurrence("x")
		m.Pending(1, 1, 1)
	})
}
