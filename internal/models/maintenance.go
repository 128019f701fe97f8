package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidTask is returned when a maintenance task fails validation at the store boundary.
var ErrInvalidTask = errors.New("invalid maintenance task")

// TaskStatus is the lifecycle state of a maintenance task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// RecurrenceType selects the offset between two occurrences of a recurring task.
type RecurrenceType string

const (
	RecurrenceDaily      RecurrenceType = "daily"
	RecurrenceWeekly     RecurrenceType = "weekly"
	RecurrenceBiweekly   RecurrenceType = "biweekly"
	RecurrenceMonthly    RecurrenceType = "monthly"
	RecurrenceBimonthly  RecurrenceType = "bimonthly"
	RecurrenceQuarterly  RecurrenceType = "quarterly"
	RecurrenceSemiannual RecurrenceType = "semiannual"
	RecurrenceAnnual     RecurrenceType = "annual"
	RecurrenceCustom     RecurrenceType = "custom"
)

// Maintenance types used by the application. Stored as free-form strings.
const (
	TypeDaily      = "daily"
	TypeQuarterly  = "quarterly"
	TypeSemiannual = "semiannual"
	TypeAnnual     = "annual"
	TypeCorrective = "corrective"
	TypeRepair     = "repair"
)

// MaintenanceTask is one scheduled maintenance occurrence in the "manutencoes" collection.
type MaintenanceTask struct {
	ID                   primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	MaterialID           string              `json:"materialId" bson:"materialId"`
	MaterialDescription  string              `json:"materialDescription" bson:"materialDescription"`
	Type                 string              `json:"type" bson:"type"`
	Description          string              `json:"description,omitempty" bson:"description,omitempty"`
	Responsible          string              `json:"responsible,omitempty" bson:"responsible,omitempty"`
	Notes                string              `json:"notes,omitempty" bson:"notes,omitempty"`
	DueDate              time.Time           `json:"dueDate" bson:"dueDate" validate:"required"`
	Status               TaskStatus          `json:"status" bson:"status" validate:"required,oneof=pending in_progress completed cancelled"`
	IsRecurrent          bool                `json:"isRecurrent" bson:"isRecurrent"`
	RecurrenceType       RecurrenceType      `json:"recurrenceType,omitempty" bson:"recurrenceType,omitempty" validate:"required_if=IsRecurrent true,omitempty,oneof=daily weekly biweekly monthly bimonthly quarterly semiannual annual custom"`
	CustomRecurrenceDays int                 `json:"customRecurrenceDays,omitempty" bson:"customRecurrenceDays,omitempty" validate:"required_if=RecurrenceType custom,omitempty,gt=0"`
	RecurrenceEndDate    *time.Time          `json:"recurrenceEndDate,omitempty" bson:"recurrenceEndDate,omitempty"`
	ReminderDays         *int                `json:"reminderDays,omitempty" bson:"reminderDays,omitempty" validate:"omitempty,min=1,max=30"`
	ParentMaintenanceID  *primitive.ObjectID `json:"parentMaintenanceId,omitempty" bson:"parentMaintenanceId,omitempty"`
	RecurrenceCount      int                 `json:"recurrenceCount" bson:"recurrenceCount"`
	CreatedAt            time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt" bson:"updatedAt"`
	CompletedAt          *time.Time          `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// MaintenanceHistory is the append-only copy of a completed task kept in "historico_manutencoes".
type MaintenanceHistory struct {
	ID                   primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	OriginalID           primitive.ObjectID  `json:"originalId" bson:"originalId"`
	MaterialID           string              `json:"materialId" bson:"materialId"`
	MaterialDescription  string              `json:"materialDescription" bson:"materialDescription"`
	Type                 string              `json:"type" bson:"type"`
	Description          string              `json:"description,omitempty" bson:"description,omitempty"`
	Responsible          string              `json:"responsible,omitempty" bson:"responsible,omitempty"`
	Notes                string              `json:"notes,omitempty" bson:"notes,omitempty"`
	DueDate              time.Time           `json:"dueDate" bson:"dueDate"`
	Status               TaskStatus          `json:"status" bson:"status"`
	IsRecurrent          bool                `json:"isRecurrent" bson:"isRecurrent"`
	RecurrenceType       RecurrenceType      `json:"recurrenceType,omitempty" bson:"recurrenceType,omitempty"`
	CustomRecurrenceDays int                 `json:"customRecurrenceDays,omitempty" bson:"customRecurrenceDays,omitempty"`
	RecurrenceEndDate    *time.Time          `json:"recurrenceEndDate,omitempty" bson:"recurrenceEndDate,omitempty"`
	ReminderDays         *int                `json:"reminderDays,omitempty" bson:"reminderDays,omitempty"`
	ParentMaintenanceID  *primitive.ObjectID `json:"parentMaintenanceId,omitempty" bson:"parentMaintenanceId,omitempty"`
	RecurrenceCount      int                 `json:"recurrenceCount" bson:"recurrenceCount"`
	CreatedAt            time.Time           `json:"createdAt" bson:"createdAt"`
	CompletedAt          time.Time           `json:"completedAt" bson:"completedAt"`
}

// NewHistory copies a completed task into a history record. The original id is kept in OriginalID.
func NewHistory(task MaintenanceTask, completedAt time.Time) MaintenanceHistory {
	return MaintenanceHistory{
		OriginalID:           task.ID,
		MaterialID:           task.MaterialID,
		MaterialDescription:  task.MaterialDescription,
		Type:                 task.Type,
		Description:          task.Description,
		Responsible:          task.Responsible,
		Notes:                task.Notes,
		DueDate:              task.DueDate,
		Status:               StatusCompleted,
		IsRecurrent:          task.IsRecurrent,
		RecurrenceType:       task.RecurrenceType,
		CustomRecurrenceDays: task.CustomRecurrenceDays,
		RecurrenceEndDate:    copyTime(task.RecurrenceEndDate),
		ReminderDays:         copyInt(task.ReminderDays),
		ParentMaintenanceID:  task.ParentMaintenanceID,
		RecurrenceCount:      task.RecurrenceCount,
		CreatedAt:            task.CreatedAt,
		CompletedAt:          completedAt,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

var validate = validator.New()

// Validate checks the required and conditional fields of a task.
func (t *MaintenanceTask) Validate() error {
	if t.DueDate.IsZero() {
		return fmt.Errorf("%w: dueDate is required", ErrInvalidTask)
	}
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	return nil
}
