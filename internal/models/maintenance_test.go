package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validTask() MaintenanceTask {
	return MaintenanceTask{
		MaterialID:          "mat-1",
		MaterialDescription: "Viatura 4x4",
		Type:                TypeQuarterly,
		DueDate:             time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Status:              StatusPending,
	}
}

func TestMaintenanceTask_Validate(t *testing.T) {
	seven := 7
	tooMany := 31

	tests := []struct {
		name    string
		mutate  func(*MaintenanceTask)
		wantErr bool
	}{
		{"plain task", func(*MaintenanceTask) {}, false},
		{"missing due date", func(m *MaintenanceTask) { m.DueDate = time.Time{} }, true},
		{"unknown status", func(m *MaintenanceTask) { m.Status = "archived" }, true},
		{"recurrent without type", func(m *MaintenanceTask) { m.IsRecurrent = true }, true},
		{"recurrent monthly", func(m *MaintenanceTask) {
			m.IsRecurrent = true
			m.RecurrenceType = RecurrenceMonthly
		}, false},
		{"unknown recurrence type", func(m *MaintenanceTask) {
			m.IsRecurrent = true
			m.RecurrenceType = "hourly"
		}, true},
		{"custom without days", func(m *MaintenanceTask) {
			m.IsRecurrent = true
			m.RecurrenceType = RecurrenceCustom
		}, true},
		{"custom with days", func(m *MaintenanceTask) {
			m.IsRecurrent = true
			m.RecurrenceType = RecurrenceCustom
			m.CustomRecurrenceDays = 10
		}, false},
		{"reminder override in range", func(m *MaintenanceTask) { m.ReminderDays = &seven }, false},
		{"reminder override out of range", func(m *MaintenanceTask) { m.ReminderDays = &tooMany }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(&task)
			err := task.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTask))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewHistory(t *testing.T) {
	task := validTask()
	task.ID = primitive.NewObjectID()
	task.Status = StatusInProgress
	done := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	h := NewHistory(task, done)

	assert.True(t, h.ID.IsZero())
	assert.Equal(t, task.ID, h.OriginalID)
	assert.Equal(t, StatusCompleted, h.Status)
	assert.Equal(t, done, h.CompletedAt)
	assert.Equal(t, task.MaterialDescription, h.MaterialDescription)
}

func TestNewHistory_KeepsRecurrenceSettings(t *testing.T) {
	task := validTask()
	task.ID = primitive.NewObjectID()
	task.IsRecurrent = true
	task.RecurrenceType = RecurrenceCustom
	task.CustomRecurrenceDays = 45
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	task.RecurrenceEndDate = &end
	reminder := 10
	task.ReminderDays = &reminder

	h := NewHistory(task, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, RecurrenceCustom, h.RecurrenceType)
	assert.Equal(t, 45, h.CustomRecurrenceDays)
	if assert.NotNil(t, h.RecurrenceEndDate) {
		assert.Equal(t, end, *h.RecurrenceEndDate)
		assert.NotSame(t, task.RecurrenceEndDate, h.RecurrenceEndDate)
	}
	if assert.NotNil(t, h.ReminderDays) {
		assert.Equal(t, 10, *h.ReminderDays)
		assert.NotSame(t, task.ReminderDays, h.ReminderDays)
	}

	plain := NewHistory(validTask(), time.Now())
	assert.Nil(t, plain.RecurrenceEndDate)
	assert.Nil(t, plain.ReminderDays)
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestNotificationSettings_Validate(t *testing.T) {
	s := DefaultNotificationSettings()
	assert.NoError(t, s.Validate())

	s.DaysBeforeReminder = 31
	assert.Error(t, s.Validate())

	s = DefaultNotificationSettings()
	s.CheckIntervalMinutes = 4
	assert.Error(t, s.Validate())
}

func TestNotificationSettings_WithRangeDefaults(t *testing.T) {
	s := DefaultNotificationSettings()
	s.Enabled = false
	s.DaysBeforeReminder = 12
	s.CheckIntervalMinutes = 500

	got := s.WithRangeDefaults()
	assert.False(t, got.Enabled)
	assert.Equal(t, 12, got.DaysBeforeReminder)
	assert.Equal(t, DefaultCheckIntervalMinutes, got.CheckIntervalMinutes)

	s.DaysBeforeReminder = -1
	assert.Equal(t, DefaultDaysBeforeReminder, s.WithRangeDefaults().DaysBeforeReminder)
}
