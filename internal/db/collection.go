package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names used by the application.
const (
	MaintenanceCollectionName = "manutencoes"
	HistoryCollectionName     = "historico_manutencoes"
)

var (
	// ErrNotFound is returned when a task id matches no document.
	ErrNotFound = errors.New("maintenance not found")
	// ErrInvalidID is returned for ids that are not hex ObjectIDs.
	ErrInvalidID = errors.New("invalid maintenance ID")
)

// TaskQuery selects tasks by status and a half-open due date range [DueFrom, DueBefore).
// Results are ordered by due date ascending.
type TaskQuery struct {
	Statuses  []models.TaskStatus
	DueFrom   *time.Time
	DueBefore *time.Time
	Limit     int64
}

// Filter renders the query as a MongoDB filter document.
func (q TaskQuery) Filter() bson.M {
	filter := bson.M{}
	switch len(q.Statuses) {
	case 0:
	case 1:
		filter["status"] = q.Statuses[0]
	default:
		filter["status"] = bson.M{"$in": q.Statuses}
	}
	due := bson.M{}
	if q.DueFrom != nil {
		due["$gte"] = *q.DueFrom
	}
	if q.DueBefore != nil {
		due["$lt"] = *q.DueBefore
	}
	if len(due) > 0 {
		filter["dueDate"] = due
	}
	return filter
}

// Matches evaluates the query against a task in memory.
func (q TaskQuery) Matches(t models.MaintenanceTask) bool {
	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			if t.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.DueFrom != nil && t.DueDate.Before(*q.DueFrom) {
		return false
	}
	if q.DueBefore != nil && !t.DueDate.Before(*q.DueBefore) {
		return false
	}
	return true
}

// StatusUpdate is a field-level status change.
type StatusUpdate struct {
	Status      models.TaskStatus
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// MaintenanceCollection defines the interface for maintenance task operations.
type MaintenanceCollection interface {
	InsertMaintenance(ctx context.Context, task models.MaintenanceTask) (primitive.ObjectID, error)
	FindMaintenance(ctx context.Context, q TaskQuery) ([]models.MaintenanceTask, error)
	FindMaintenanceByID(ctx context.Context, id string) (*models.MaintenanceTask, error)
	UpdateMaintenanceStatus(ctx context.Context, id string, update StatusUpdate) error
}

// HistoryCollection defines the interface for the completed-task history.
type HistoryCollection interface {
	InsertHistory(ctx context.Context, history models.MaintenanceHistory) (primitive.ObjectID, error)
}
