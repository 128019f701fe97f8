// Package recurrence computes the next occurrence of a completed recurring maintenance task.
package recurrence

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/clock"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outcome labels for a recurrence evaluation.
const (
	OutcomeCreated      = "created"
	OutcomeNotRecurrent = "not_recurrent"
	OutcomeMalformed    = "malformed"
	OutcomeEnded        = "ended"
	OutcomeFailed       = "failed"
)

// offset is the step between occurrences: whole days or calendar months.
type offset struct {
	days   int
	months int
}

var offsets = map[models.RecurrenceType]offset{
	models.RecurrenceDaily:      {days: 1},
	models.RecurrenceWeekly:     {days: 7},
	models.RecurrenceBiweekly:   {days: 15},
	models.RecurrenceMonthly:    {months: 1},
	models.RecurrenceBimonthly:  {months: 2},
	models.RecurrenceQuarterly:  {months: 3},
	models.RecurrenceSemiannual: {months: 6},
	models.RecurrenceAnnual:     {months: 12},
}

// AddMonths adds n calendar months to t, clamping to the last day of the target month
// (Jan 31 + 1 month is Feb 29 in a leap year, Feb 28 otherwise).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// NextDueDate returns the due date following task's own due date. Calendar offsets are
// applied to the due date as seen in loc, so month ends and day boundaries follow that zone
// even when the stored time is UTC. A nil loc keeps the due date's own location. The second
// result is false when the task is not recurrent or its recurrence is malformed.
func NextDueDate(task models.MaintenanceTask, loc *time.Location) (time.Time, bool) {
	if !task.IsRecurrent || task.RecurrenceType == "" {
		return time.Time{}, false
	}
	due := task.DueDate
	if loc != nil {
		due = due.In(loc)
	}
	if task.RecurrenceType == models.RecurrenceCustom {
		if task.CustomRecurrenceDays <= 0 {
			return time.Time{}, false
		}
		return due.AddDate(0, 0, task.CustomRecurrenceDays), true
	}
	off, ok := offsets[task.RecurrenceType]
	if !ok {
		return time.Time{}, false
	}
	if off.months > 0 {
		return AddMonths(due, off.months), true
	}
	return due.AddDate(0, 0, off.days), true
}

// Next builds the pending task that follows completed, stamped with now. The next due date is
// computed in now's location. The task is nil when no occurrence should be created; the
// outcome label says why.
func Next(completed models.MaintenanceTask, now time.Time) (*models.MaintenanceTask, string) {
	if !completed.IsRecurrent || completed.RecurrenceType == "" {
		return nil, OutcomeNotRecurrent
	}
	due, ok := NextDueDate(completed, now.Location())
	if !ok {
		return nil, OutcomeMalformed
	}
	if completed.RecurrenceEndDate != nil && due.After(*completed.RecurrenceEndDate) {
		return nil, OutcomeEnded
	}

	parent := completed.ID
	if completed.ParentMaintenanceID != nil && !completed.ParentMaintenanceID.IsZero() {
		parent = *completed.ParentMaintenanceID
	}

	next := completed
	next.ID = primitive.NilObjectID
	next.DueDate = due
	next.Status = models.StatusPending
	next.RecurrenceCount = completed.RecurrenceCount + 1
	next.ParentMaintenanceID = &parent
	next.CreatedAt = now
	next.UpdatedAt = now
	next.CompletedAt = nil
	if completed.RecurrenceEndDate != nil {
		end := *completed.RecurrenceEndDate
		next.RecurrenceEndDate = &end
	}
	if completed.ReminderDays != nil {
		days := *completed.ReminderDays
		next.ReminderDays = &days
	}
	return &next, OutcomeCreated
}

// Calculator creates and persists the next occurrence of completed tasks.
type Calculator struct {
	tasks   db.MaintenanceCollection
	clock   clock.Clock
	logger  log.FieldLogger
	metrics *metrics.Metrics
}

// NewCalculator creates a calculator writing to tasks.
func NewCalculator(tasks db.MaintenanceCollection, c clock.Clock, logger log.FieldLogger, m *metrics.Metrics) *Calculator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Calculator{tasks: tasks, clock: c, logger: logger.WithField("component", "recurrence"), metrics: m}
}

// Generate persists the occurrence following completed. It returns nil and no error when the
// task does not recur, is malformed, or its series has ended.
func (c *Calculator) Generate(ctx context.Context, completed models.MaintenanceTask) (*models.MaintenanceTask, error) {
	next, outcome := Next(completed, c.clock.Now())
	fields := log.Fields{
		"maintenance_id":  completed.ID.Hex(),
		"recurrence_type": completed.RecurrenceType,
	}
	if next == nil {
		c.metrics.Recurrence(outcome)
		if outcome == OutcomeMalformed {
			c.logger.WithFields(fields).Warn("Skipping next occurrence: malformed recurrence")
		} else if outcome == OutcomeEnded {
			c.logger.WithFields(fields).Info("Recurrence series ended")
		}
		return nil, nil
	}

	id, err := c.tasks.InsertMaintenance(ctx, *next)
	if err != nil {
		c.metrics.Recurrence(OutcomeFailed)
		return nil, fmt.Errorf("failed to create next occurrence: %w", err)
	}
	next.ID = id
	c.metrics.Recurrence(OutcomeCreated)

	fields["next_id"] = id.Hex()
	fields["next_due"] = next.DueDate.Format(time.RFC3339)
	fields["recurrence_count"] = next.RecurrenceCount
	c.logger.WithFields(fields).Info("Created next maintenance occurrence")
	return next, nil
}
