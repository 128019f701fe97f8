package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/query"
	"github.com/ukydev/fleet-maintenance/internal/reminder"
)

// Sweeper runs a notification sweep.
type Sweeper interface {
	Check(ctx context.Context, force bool) reminder.Result
}

// SummaryReader reads the maintenance buckets.
type SummaryReader interface {
	Summary(ctx context.Context, daysAhead int) query.Summary
}

// Lifecycle changes task status.
type Lifecycle interface {
	Create(ctx context.Context, task models.MaintenanceTask) (*models.MaintenanceTask, error)
	Start(ctx context.Context, id string) (*models.MaintenanceTask, error)
	Cancel(ctx context.Context, id string) (*models.MaintenanceTask, error)
	Complete(ctx context.Context, id string) (*maintenance.Completion, error)
}

// SettingsStore reads and writes notification settings.
type SettingsStore interface {
	Get(ctx context.Context) models.NotificationSettings
	Save(ctx context.Context, s models.NotificationSettings) bool
}

// MaintenanceHandler handles the maintenance endpoints
type MaintenanceHandler struct {
	sweeper   Sweeper
	summary   SummaryReader
	lifecycle Lifecycle
	settings  SettingsStore
	logger    log.FieldLogger
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(sweeper Sweeper, summary SummaryReader, lifecycle Lifecycle, settings SettingsStore, logger log.FieldLogger) *MaintenanceHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &MaintenanceHandler{
		sweeper:   sweeper,
		summary:   summary,
		lifecycle: lifecycle,
		settings:  settings,
		logger:    logger,
	}
}

// Summary returns the overdue, today and upcoming buckets. The upcoming window is the
// configured reminder days unless ?days= overrides it.
func (h *MaintenanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	days := h.settings.Get(r.Context()).DaysBeforeReminder
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < models.MinDaysBeforeReminder || n > models.MaxDaysBeforeReminder {
			http.Error(w, "days must be between 1 and 30", http.StatusBadRequest)
			return
		}
		days = n
	}
	writeJSON(w, http.StatusOK, h.summary.Summary(r.Context(), days))
}

// Check runs a sweep; ?force=true bypasses the throttle.
func (h *MaintenanceHandler) Check(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	writeJSON(w, http.StatusOK, h.sweeper.Check(r.Context(), force))
}

// Create stores a new maintenance task
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var task models.MaintenanceTask
	if err := json.Unmarshal(body, &task); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	created, err := h.lifecycle.Create(r.Context(), task)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Start moves a task to in progress
func (h *MaintenanceHandler) Start(w http.ResponseWriter, r *http.Request) {
	task, err := h.lifecycle.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Cancel cancels a task
func (h *MaintenanceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	task, err := h.lifecycle.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Complete completes a task and returns the next occurrence, if any
func (h *MaintenanceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	res, err := h.lifecycle.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MaintenanceHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, "Maintenance not found", http.StatusNotFound)
	case errors.Is(err, db.ErrInvalidID), errors.Is(err, models.ErrInvalidTask):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, maintenance.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.WithError(err).Error("Maintenance request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
