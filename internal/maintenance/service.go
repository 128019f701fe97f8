// Package maintenance implements the task lifecycle: create, start, complete, cancel.
package maintenance

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/clock"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/recurrence"
)

// ErrInvalidTransition is returned when a status change is not allowed from the current state.
var ErrInvalidTransition = errors.New("invalid status transition")

// Service applies lifecycle changes to maintenance tasks.
type Service struct {
	tasks      db.MaintenanceCollection
	history    db.HistoryCollection
	recurrence *recurrence.Calculator
	clock      clock.Clock
	logger     log.FieldLogger
}

// NewService creates a lifecycle service.
func NewService(tasks db.MaintenanceCollection, history db.HistoryCollection, calc *recurrence.Calculator, c clock.Clock, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		tasks:      tasks,
		history:    history,
		recurrence: calc,
		clock:      c,
		logger:     logger.WithField("component", "maintenance"),
	}
}

// Create validates and stores a new task. Status defaults to pending.
func (s *Service) Create(ctx context.Context, task models.MaintenanceTask) (*models.MaintenanceTask, error) {
	now := s.clock.Now()
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	task.CreatedAt = now
	task.UpdatedAt = now
	if err := task.Validate(); err != nil {
		return nil, err
	}

	id, err := s.tasks.InsertMaintenance(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create maintenance: %w", err)
	}
	task.ID = id
	s.logger.WithFields(log.Fields{
		"maintenance_id": id.Hex(),
		"material_id":    task.MaterialID,
		"due_date":       task.DueDate,
	}).Info("Maintenance created")
	return &task, nil
}

// Start moves a pending task to in progress.
func (s *Service) Start(ctx context.Context, id string) (*models.MaintenanceTask, error) {
	task, err := s.tasks.FindMaintenanceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: cannot start a %s task", ErrInvalidTransition, task.Status)
	}
	return s.transition(ctx, task, models.StatusInProgress)
}

// Cancel moves a pending or in-progress task to cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (*models.MaintenanceTask, error) {
	task, err := s.tasks.FindMaintenanceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot cancel a %s task", ErrInvalidTransition, task.Status)
	}
	return s.transition(ctx, task, models.StatusCancelled)
}

// Completion is the outcome of completing a task.
type Completion struct {
	Task *models.MaintenanceTask `json:"task"`
	Next *models.MaintenanceTask `json:"next,omitempty"`
}

// Complete marks a task completed, records it in the history collection and, for recurring
// tasks, creates the next occurrence. A failure to write history or the next occurrence is
// logged; the completion itself stands.
func (s *Service) Complete(ctx context.Context, id string) (*Completion, error) {
	task, err := s.tasks.FindMaintenanceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot complete a %s task", ErrInvalidTransition, task.Status)
	}

	done, err := s.transition(ctx, task, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	res := &Completion{Task: done}
	logger := s.logger.WithField("maintenance_id", id)

	if s.history != nil {
		if _, err := s.history.InsertHistory(ctx, models.NewHistory(*done, *done.CompletedAt)); err != nil {
			logger.WithError(err).Error("Failed to record maintenance history")
		}
	}

	if s.recurrence != nil {
		next, err := s.recurrence.Generate(ctx, *done)
		if err != nil {
			logger.WithError(err).Error("Failed to schedule next occurrence")
		}
		res.Next = next
	}
	return res, nil
}

func (s *Service) transition(ctx context.Context, task *models.MaintenanceTask, status models.TaskStatus) (*models.MaintenanceTask, error) {
	now := s.clock.Now()
	update := db.StatusUpdate{Status: status, UpdatedAt: now}
	if status == models.StatusCompleted {
		update.CompletedAt = &now
	}
	if err := s.tasks.UpdateMaintenanceStatus(ctx, task.ID.Hex(), update); err != nil {
		return nil, fmt.Errorf("failed to update maintenance status: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"maintenance_id": task.ID.Hex(),
		"from":           task.Status,
		"to":             status,
	}).Info("Maintenance status changed")

	task.Status = status
	task.UpdatedAt = now
	if update.CompletedAt != nil {
		task.CompletedAt = update.CompletedAt
	}
	return task, nil
}
