// Package query reads the overdue, due-today and upcoming maintenance buckets.
// Every read fails soft: errors are logged and an empty list is returned.
package query

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/clock"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"golang.org/x/sync/errgroup"
)

// Bucket names, also used as log and metric labels.
const (
	BucketOverdue  = "overdue"
	BucketToday    = "today"
	BucketUpcoming = "upcoming"
)

// Summary aggregates the three buckets.
type Summary struct {
	Overdue       []models.MaintenanceTask `json:"overdue"`
	Today         []models.MaintenanceTask `json:"today"`
	Upcoming      []models.MaintenanceTask `json:"upcoming"`
	OverdueCount  int                      `json:"overdueCount"`
	TodayCount    int                      `json:"todayCount"`
	UpcomingCount int                      `json:"upcomingCount"`
	TotalPending  int                      `json:"totalPending"`
}

// Layer runs the bucket queries against a maintenance collection.
type Layer struct {
	tasks   db.MaintenanceCollection
	clock   clock.Clock
	logger  log.FieldLogger
	metrics *metrics.Metrics
	timeout time.Duration
}

// Option configures a Layer.
type Option func(*Layer)

// WithTimeout bounds each individual query.
func WithTimeout(d time.Duration) Option {
	return func(l *Layer) { l.timeout = d }
}

// WithMetrics records query failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Layer) { l.metrics = m }
}

// New creates a query layer.
func New(tasks db.MaintenanceCollection, c clock.Clock, logger log.FieldLogger, opts ...Option) *Layer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	l := &Layer{tasks: tasks, clock: c, logger: logger.WithField("component", "query")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Layer) find(ctx context.Context, bucket string, q db.TaskQuery) []models.MaintenanceTask {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	tasks, err := l.tasks.FindMaintenance(ctx, q)
	if err != nil {
		l.logger.WithError(err).WithField("bucket", bucket).Error("Failed to query maintenance tasks")
		l.metrics.QueryFailed(bucket)
		return []models.MaintenanceTask{}
	}
	return tasks
}

// Overdue returns pending tasks due before the start of today, oldest first.
func (l *Layer) Overdue(ctx context.Context) []models.MaintenanceTask {
	startOfToday := clock.StartOfDay(l.clock.Now())
	return l.find(ctx, BucketOverdue, db.TaskQuery{
		Statuses:  []models.TaskStatus{models.StatusPending},
		DueBefore: &startOfToday,
	})
}

// DueToday returns pending or in-progress tasks due during today.
func (l *Layer) DueToday(ctx context.Context) []models.MaintenanceTask {
	startOfToday := clock.StartOfDay(l.clock.Now())
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)
	return l.find(ctx, BucketToday, db.TaskQuery{
		Statuses:  []models.TaskStatus{models.StatusPending, models.StatusInProgress},
		DueFrom:   &startOfToday,
		DueBefore: &startOfTomorrow,
	})
}

// Upcoming returns pending tasks due from tomorrow up to, but excluding, today plus daysAhead.
// Today's tasks belong to DueToday and are never included.
func (l *Layer) Upcoming(ctx context.Context, daysAhead int) []models.MaintenanceTask {
	startOfToday := clock.StartOfDay(l.clock.Now())
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)
	end := startOfToday.AddDate(0, 0, daysAhead)
	if !end.After(startOfTomorrow) {
		return []models.MaintenanceTask{}
	}
	return l.find(ctx, BucketUpcoming, db.TaskQuery{
		Statuses:  []models.TaskStatus{models.StatusPending},
		DueFrom:   &startOfTomorrow,
		DueBefore: &end,
	})
}

// Summary runs the three queries concurrently. A failing branch contributes an empty list
// and never affects the others.
func (l *Layer) Summary(ctx context.Context, daysAhead int) Summary {
	var s Summary
	var g errgroup.Group
	g.Go(func() error {
		s.Overdue = l.Overdue(ctx)
		return nil
	})
	g.Go(func() error {
		s.Today = l.DueToday(ctx)
		return nil
	})
	g.Go(func() error {
		s.Upcoming = l.Upcoming(ctx, daysAhead)
		return nil
	})
	_ = g.Wait()

	s.OverdueCount = len(s.Overdue)
	s.TodayCount = len(s.Today)
	s.UpcomingCount = len(s.Upcoming)
	s.TotalPending = s.OverdueCount + s.TodayCount + s.UpcomingCount
	l.metrics.Pending(s.OverdueCount, s.TodayCount, s.UpcomingCount)
	return s
}
