package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bounds for the user-tunable notification settings.
const (
	MinDaysBeforeReminder   = 1
	MaxDaysBeforeReminder   = 30
	MinCheckIntervalMinutes = 5
	MaxCheckIntervalMinutes = 120

	DefaultDaysBeforeReminder   = 3
	DefaultCheckIntervalMinutes = 30
)

// NotificationSettings holds the user's reminder preferences.
type NotificationSettings struct {
	Enabled                  bool `json:"enabled"`
	ShowBrowserNotifications bool `json:"showBrowserNotifications"`
	NotifyOverdue            bool `json:"notifyOverdue"`
	NotifyToday              bool `json:"notifyToday"`
	NotifyUpcoming           bool `json:"notifyUpcoming"`
	DaysBeforeReminder       int  `json:"daysBeforeReminder" validate:"min=1,max=30"`
	CheckIntervalMinutes     int  `json:"checkIntervalMinutes" validate:"min=5,max=120"`
}

// DefaultNotificationSettings returns the settings used when nothing valid is stored.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:                  true,
		ShowBrowserNotifications: true,
		NotifyOverdue:            true,
		NotifyToday:              true,
		NotifyUpcoming:           true,
		DaysBeforeReminder:       DefaultDaysBeforeReminder,
		CheckIntervalMinutes:     DefaultCheckIntervalMinutes,
	}
}

// Validate checks the numeric ranges.
func (s NotificationSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid notification settings: %w", err)
	}
	return nil
}

// WithRangeDefaults returns s with each out-of-range number replaced by its default.
func (s NotificationSettings) WithRangeDefaults() NotificationSettings {
	if s.DaysBeforeReminder < MinDaysBeforeReminder || s.DaysBeforeReminder > MaxDaysBeforeReminder {
		s.DaysBeforeReminder = DefaultDaysBeforeReminder
	}
	if s.CheckIntervalMinutes < MinCheckIntervalMinutes || s.CheckIntervalMinutes > MaxCheckIntervalMinutes {
		s.CheckIntervalMinutes = DefaultCheckIntervalMinutes
	}
	return s
}

// AlertKind classifies why a task is being surfaced.
type AlertKind string

const (
	AlertOverdue  AlertKind = "overdue"
	AlertToday    AlertKind = "today"
	AlertUpcoming AlertKind = "upcoming"
)

// Alert is a single reminder about a task, ready to be dispatched.
type Alert struct {
	Kind      AlertKind       `json:"kind"`
	Key       string          `json:"key"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	DaysUntil int             `json:"daysUntil"`
	Task      MaintenanceTask `json:"task"`
}

// TaskID returns the hex id of the alerted task.
func (a Alert) TaskID() string {
	if a.Task.ID == primitive.NilObjectID {
		return ""
	}
	return a.Task.ID.Hex()
}
