package reminder

import (
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/clock"
	"github.com/ukydev/fleet-maintenance/internal/ledger"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/query"
)

const dateLayout = "02/01/2006"

// EffectiveReminderDays is the task's own reminder window, or the global one.
func EffectiveReminderDays(task models.MaintenanceTask, cfg models.NotificationSettings) int {
	if task.ReminderDays != nil && *task.ReminderDays > 0 {
		return *task.ReminderDays
	}
	return cfg.DaysBeforeReminder
}

// DaysUntil counts calendar days from now's day to the task's due day.
func DaysUntil(now time.Time, task models.MaintenanceTask) int {
	return clock.DaysBetween(now, task.DueDate)
}

// WithinReminder keeps the upcoming tasks whose countdown is inside their effective window.
func WithinReminder(now time.Time, cfg models.NotificationSettings, tasks []models.MaintenanceTask) []models.MaintenanceTask {
	out := []models.MaintenanceTask{}
	for _, t := range tasks {
		if DaysUntil(now, t) < EffectiveReminderDays(t, cfg) {
			out = append(out, t)
		}
	}
	return out
}

// BuildAlerts turns a summary into alerts for the kinds switched on in cfg,
// overdue first, then today, then upcoming.
func BuildAlerts(now time.Time, cfg models.NotificationSettings, s query.Summary) []models.Alert {
	alerts := []models.Alert{}
	if cfg.NotifyOverdue {
		for _, t := range s.Overdue {
			days := DaysUntil(now, t)
			alerts = append(alerts, models.Alert{
				Kind:      models.AlertOverdue,
				Key:       ledger.OverdueKey(t.ID.Hex()),
				Title:     "Overdue maintenance",
				Body:      fmt.Sprintf("%s was due on %s (%s)", label(t), t.DueDate.Format(dateLayout), plural(-days, "day")+" ago"),
				DaysUntil: days,
				Task:      t,
			})
		}
	}
	if cfg.NotifyToday {
		for _, t := range s.Today {
			alerts = append(alerts, models.Alert{
				Kind:  models.AlertToday,
				Key:   ledger.TodayKey(t.ID.Hex()),
				Title: "Maintenance due today",
				Body:  label(t) + " is due today",
				Task:  t,
			})
		}
	}
	if cfg.NotifyUpcoming {
		for _, t := range s.Upcoming {
			days := DaysUntil(now, t)
			alerts = append(alerts, models.Alert{
				Kind:      models.AlertUpcoming,
				Key:       ledger.UpcomingKey(t.ID.Hex(), days),
				Title:     "Upcoming maintenance",
				Body:      fmt.Sprintf("%s is due in %s", label(t), plural(days, "day")),
				DaysUntil: days,
				Task:      t,
			})
		}
	}
	return alerts
}

func label(t models.MaintenanceTask) string {
	switch {
	case t.MaterialDescription != "" && t.Description != "":
		return t.MaterialDescription + ": " + t.Description
	case t.MaterialDescription != "":
		return t.MaterialDescription
	case t.Description != "":
		return t.Description
	default:
		return "Maintenance " + t.ID.Hex()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
