// Package metrics exposes Prometheus counters for the reminder subsystem.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors.
type Metrics struct {
	Sweeps         *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
	QueryFailures  *prometheus.CounterVec
	Recurrences    *prometheus.CounterVec
	PendingByState *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maintenance_sweeps_total",
				Help: "Notification sweeps by outcome",
			},
			[]string{"reason"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maintenance_notifications_total",
				Help: "Notifications emitted by mode",
			},
			[]string{"mode"},
		),
		QueryFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maintenance_query_failures_total",
				Help: "Failed maintenance bucket queries",
			},
			[]string{"bucket"},
		),
		Recurrences: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maintenance_recurrences_total",
				Help: "Recurrence evaluations by outcome",
			},
			[]string{"outcome"},
		),
		PendingByState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "maintenance_pending_tasks",
				Help: "Pending tasks seen by the last sweep",
			},
			[]string{"bucket"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Sweeps, m.Notifications, m.QueryFailures, m.Recurrences, m.PendingByState)
	}
	return m
}

// Sweep counts a sweep outcome.
func (m *Metrics) Sweep(reason string) {
	if m == nil {
		return
	}
	m.Sweeps.WithLabelValues(reason).Inc()
}

// Notified counts emitted notifications.
func (m *Metrics) Notified(mode string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Notifications.WithLabelValues(mode).Add(float64(n))
}

// QueryFailed counts a failed bucket query.
func (m *Metrics) QueryFailed(bucket string) {
	if m == nil {
		return
	}
	m.QueryFailures.WithLabelValues(bucket).Inc()
}

// Recurrence counts a recurrence evaluation.
func (m *Metrics) Recurrence(outcome string) {
	if m == nil {
		return
	}
	m.Recurrences.WithLabelValues(outcome).Inc()
}

// Pending records bucket sizes.
func (m *Metrics) Pending(overdue, today, upcoming int) {
	if m == nil {
		return
	}
	m.PendingByState.WithLabelValues("overdue").Set(float64(overdue))
	m.PendingByState.WithLabelValues("today").Set(float64(today))
	m.PendingByState.WithLabelValues("upcoming").Set(float64(upcoming))
}
