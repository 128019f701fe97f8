package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeAPI struct {
	mu      sync.Mutex
	tasks   []models.MaintenanceTask
	checks  int
	auth    []string
	failing bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/maintenance", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		if f.failing {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var task models.MaintenanceTask
		if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		task.ID = primitive.NewObjectID()
		f.tasks = append(f.tasks, task)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(task)
	})
	mux.HandleFunc("POST /api/maintenance/check", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.URL.Query().Get("force") != "true" {
			http.Error(w, "expected force", http.StatusBadRequest)
			return
		}
		f.checks++
		json.NewEncoder(w).Encode(map[string]interface{}{"reason": "notified", "count": len(f.tasks)})
	})
	return mux
}

func TestSampleTasks(t *testing.T) {
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	tasks := sampleTasks(now, 10, rand.New(rand.NewSource(1)))
	require.Len(t, tasks, 10)

	assert.True(t, tasks[0].DueDate.Before(now), "first task is overdue")
	assert.True(t, tasks[9].DueDate.After(now.AddDate(0, 0, 20)))

	for i, task := range tasks {
		task.Status = models.StatusPending
		assert.NoError(t, task.Validate(), "task %d", i)
		assert.Equal(t, i%2 == 0, task.IsRecurrent)
	}
}

func TestSeeder_Run(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	s := newSeeder(srv.URL+"/api", "tok")
	tasks := sampleTasks(time.Now(), 4, rand.New(rand.NewSource(7)))

	assert.Equal(t, 4, s.run(tasks, true))
	assert.Len(t, api.tasks, 4)
	assert.Equal(t, 1, api.checks)
	for _, h := range api.auth {
		assert.Equal(t, "Bearer tok", h)
	}
}

func TestSeeder_RunWithoutCheck(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	s := newSeeder(srv.URL+"/api", "")
	assert.Equal(t, 2, s.run(sampleTasks(time.Now(), 2, rand.New(rand.NewSource(3))), false))
	assert.Equal(t, 0, api.checks)
	assert.Equal(t, []string{"", ""}, api.auth)
}

func TestSeeder_CreateFailure(t *testing.T) {
	api := &fakeAPI{failing: true}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	s := newSeeder(srv.URL+"/api", "tok")
	_, err := s.createTask(sampleTasks(time.Now(), 1, rand.New(rand.NewSource(1)))[0])
	assert.ErrorContains(t, err, "status: 500")

	assert.Equal(t, 0, s.run(sampleTasks(time.Now(), 2, rand.New(rand.NewSource(1))), true))
	assert.Equal(t, 0, api.checks)
}

func TestSeeder_Unreachable(t *testing.T) {
	s := newSeeder("http://127.0.0.1:1/api", "")
	_, err := s.forceCheck()
	assert.Error(t, err)
}
