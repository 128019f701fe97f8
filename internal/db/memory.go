package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCollection is an in-process implementation of MaintenanceCollection and
// HistoryCollection. Setting FindErr or InsertErr makes the matching calls fail.
type MemoryCollection struct {
	mu      sync.RWMutex
	tasks   map[primitive.ObjectID]models.MaintenanceTask
	history []models.MaintenanceHistory

	FindErr   error
	InsertErr error
}

// NewMemoryCollection creates an empty collection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{tasks: map[primitive.ObjectID]models.MaintenanceTask{}}
}

// InsertMaintenance stores task, assigning an id when it has none.
func (m *MemoryCollection) InsertMaintenance(_ context.Context, task models.MaintenanceTask) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return primitive.NilObjectID, m.InsertErr
	}
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, exists := m.tasks[task.ID]; exists {
		return primitive.NilObjectID, fmt.Errorf("duplicate maintenance ID %s", task.ID.Hex())
	}
	m.tasks[task.ID] = task
	return task.ID, nil
}

// FindMaintenance returns matching tasks ordered by due date.
func (m *MemoryCollection) FindMaintenance(_ context.Context, q TaskQuery) ([]models.MaintenanceTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	out := []models.MaintenanceTask{}
	for _, t := range m.tasks {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// FindMaintenanceByID looks a task up by hex id.
func (m *MemoryCollection) FindMaintenanceByID(_ context.Context, id string) (*models.MaintenanceTask, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[objectID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

// UpdateMaintenanceStatus applies a status change.
func (m *MemoryCollection) UpdateMaintenanceStatus(_ context.Context, id string, update StatusUpdate) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[objectID]
	if !ok {
		return ErrNotFound
	}
	t.Status = update.Status
	t.UpdatedAt = update.UpdatedAt
	if update.CompletedAt != nil {
		at := *update.CompletedAt
		t.CompletedAt = &at
	}
	m.tasks[objectID] = t
	return nil
}

// InsertHistory appends a history record.
func (m *MemoryCollection) InsertHistory(_ context.Context, history models.MaintenanceHistory) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return primitive.NilObjectID, m.InsertErr
	}
	history.ID = primitive.NewObjectID()
	m.history = append(m.history, history)
	return history.ID, nil
}

// All returns every stored task ordered by due date.
func (m *MemoryCollection) All() []models.MaintenanceTask {
	out, _ := (&MemoryCollection{tasks: m.snapshot()}).FindMaintenance(context.Background(), TaskQuery{})
	return out
}

// History returns the history records in insertion order.
func (m *MemoryCollection) History() []models.MaintenanceHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.MaintenanceHistory(nil), m.history...)
}

func (m *MemoryCollection) snapshot() map[primitive.ObjectID]models.MaintenanceTask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[primitive.ObjectID]models.MaintenanceTask, len(m.tasks))
	for k, v := range m.tasks {
		cp[k] = v
	}
	return cp
}
