// Package reminder runs the notification sweep: throttle, query, de-duplicate, dispatch.
package reminder

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/clock"
	"github.com/ukydev/fleet-maintenance/internal/dispatch"
	"github.com/ukydev/fleet-maintenance/internal/ledger"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/query"
	"github.com/ukydev/fleet-maintenance/internal/settings"
	"github.com/ukydev/fleet-maintenance/internal/throttle"
)

// Sweep outcomes reported in Result.Reason.
const (
	ReasonDisabled   = "disabled"
	ReasonThrottled  = "throttled"
	ReasonNothingNew = "nothing_new"
	ReasonNotified   = "notified"
)

// UpcomingWindow is how far ahead a sweep looks before applying per-task reminder days.
const UpcomingWindow = models.MaxDaysBeforeReminder

// Result describes one sweep.
type Result struct {
	SweepID  string         `json:"sweepId"`
	Notified bool           `json:"notified"`
	Count    int            `json:"count"`
	Shown    int            `json:"shown"`
	Reason   string         `json:"reason"`
	Alerts   []models.Alert `json:"alerts"`
	Summary  *query.Summary `json:"summary,omitempty"`
}

// Service wires the sweep collaborators together.
type Service struct {
	settings   *settings.Store
	queries    *query.Layer
	ledger     *ledger.Ledger
	gate       *throttle.Gate
	dispatcher *dispatch.Dispatcher
	clock      clock.Clock
	logger     log.FieldLogger
	metrics    *metrics.Metrics
}

// Deps are the collaborators of a Service.
type Deps struct {
	Settings   *settings.Store
	Queries    *query.Layer
	Ledger     *ledger.Ledger
	Gate       *throttle.Gate
	Dispatcher *dispatch.Dispatcher
	Clock      clock.Clock
	Logger     log.FieldLogger
	Metrics    *metrics.Metrics
}

// NewService creates a sweep service.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		settings:   d.Settings,
		queries:    d.Queries,
		ledger:     d.Ledger,
		gate:       d.Gate,
		dispatcher: d.Dispatcher,
		clock:      d.Clock,
		logger:     logger.WithField("component", "reminder"),
		metrics:    d.Metrics,
	}
}

// Check runs a sweep. force bypasses the throttle but not the enabled switch.
// Check never fails; collaborator errors are logged and degrade to fewer alerts.
func (s *Service) Check(ctx context.Context, force bool) Result {
	res := Result{SweepID: uuid.NewString(), Alerts: []models.Alert{}}
	logger := s.logger.WithField("sweep_id", res.SweepID)

	cfg := s.settings.Get(ctx)
	if !cfg.Enabled {
		res.Reason = ReasonDisabled
		s.metrics.Sweep(res.Reason)
		return res
	}
	if !force && !s.gate.ShouldRun(ctx, cfg.CheckIntervalMinutes) {
		res.Reason = ReasonThrottled
		s.metrics.Sweep(res.Reason)
		logger.Debug("Sweep throttled")
		return res
	}
	// Recorded before fetching so a hung query cannot make sweeps pile up.
	s.gate.RecordRun(ctx)

	now := s.clock.Now()
	summary := s.queries.Summary(ctx, UpcomingWindow)
	summary.Upcoming = WithinReminder(now, cfg, summary.Upcoming)
	summary.UpcomingCount = len(summary.Upcoming)
	summary.TotalPending = summary.OverdueCount + summary.TodayCount + summary.UpcomingCount
	s.metrics.Pending(summary.OverdueCount, summary.TodayCount, summary.UpcomingCount)
	res.Summary = &summary

	candidates := BuildAlerts(now, cfg, summary)
	keys := make([]string, len(candidates))
	for i, a := range candidates {
		keys[i] = a.Key
	}
	fresh := map[string]bool{}
	for _, k := range s.ledger.Filter(ctx, keys) {
		fresh[k] = true
	}
	for _, a := range candidates {
		if fresh[a.Key] {
			res.Alerts = append(res.Alerts, a)
		}
	}

	if len(res.Alerts) == 0 {
		res.Reason = ReasonNothingNew
		s.metrics.Sweep(res.Reason)
		logger.WithField("candidates", len(candidates)).Debug("No new maintenance alerts")
		return res
	}

	newKeys := make([]string, len(res.Alerts))
	for i, a := range res.Alerts {
		newKeys[i] = a.Key
	}
	s.ledger.MarkAll(ctx, newKeys)

	res.Shown = s.dispatcher.Dispatch(ctx, cfg, res.Alerts)
	res.Notified = true
	res.Count = len(res.Alerts)
	res.Reason = ReasonNotified
	s.metrics.Sweep(res.Reason)

	logger.WithFields(log.Fields{
		"count":    res.Count,
		"shown":    res.Shown,
		"overdue":  summary.OverdueCount,
		"today":    summary.TodayCount,
		"upcoming": summary.UpcomingCount,
	}).Info("Maintenance reminders issued")
	return res
}
