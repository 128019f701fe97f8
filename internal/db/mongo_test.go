package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri", 500*time.Millisecond)
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestInsertMaintenance_NilCollection(t *testing.T) {
	coll := &MongoCollection{Collection: nil}
	_, err := coll.InsertMaintenance(context.Background(), models.MaintenanceTask{})
	assert.Error(t, err)

	_, err = coll.FindMaintenance(context.Background(), TaskQuery{})
	assert.Error(t, err)

	hist := &MongoHistoryCollection{Collection: nil}
	_, err = hist.InsertHistory(context.Background(), models.MaintenanceHistory{})
	assert.Error(t, err)
}

func TestTaskQuery_Filter(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	q := TaskQuery{
		Statuses:  []models.TaskStatus{models.StatusPending, models.StatusInProgress},
		DueFrom:   &from,
		DueBefore: &before,
	}
	assert.Equal(t, bson.M{
		"status":  bson.M{"$in": []models.TaskStatus{models.StatusPending, models.StatusInProgress}},
		"dueDate": bson.M{"$gte": from, "$lt": before},
	}, q.Filter())

	single := TaskQuery{Statuses: []models.TaskStatus{models.StatusPending}, DueBefore: &from}
	assert.Equal(t, bson.M{
		"status":  models.StatusPending,
		"dueDate": bson.M{"$lt": from},
	}, single.Filter())

	assert.Equal(t, bson.M{}, TaskQuery{}.Filter())
}

// Integration test (requires running MongoDB)
func TestMongoCollection_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
		return
	}
	ctx := context.Background()
	client, err := ConnectMongo(ctx, uri, 10*time.Second)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
		return
	}
	defer client.Disconnect(ctx)

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "fleet_test"
	}
	tasks, history := NewMongoCollections(client, dbName)
	_ = tasks.Collection.Drop(ctx)
	_ = history.Collection.Drop(ctx)

	due := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	id, err := tasks.InsertMaintenance(ctx, models.MaintenanceTask{
		MaterialID: "mat-1",
		Type:       models.TypeAnnual,
		DueDate:    due,
		Status:     models.StatusPending,
	})
	require.NoError(t, err)

	from := due.Add(-time.Hour)
	found, err := tasks.FindMaintenance(ctx, TaskQuery{
		Statuses: []models.TaskStatus{models.StatusPending},
		DueFrom:  &from,
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)

	done := due.Add(time.Hour)
	require.NoError(t, tasks.UpdateMaintenanceStatus(ctx, id.Hex(), StatusUpdate{
		Status:      models.StatusCompleted,
		UpdatedAt:   done,
		CompletedAt: &done,
	}))
	got, err := tasks.FindMaintenanceByID(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	_, err = history.InsertHistory(ctx, models.NewHistory(*got, done))
	assert.NoError(t, err)
}
