// Package ledger remembers which reminders were already surfaced so a sweep does not repeat them.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/clock"
	"github.com/ukydev/fleet-maintenance/internal/kv"
)

const (
	// Key is the storage key for the ledger map.
	Key = "maintenance_notified_items"
	// Retention is how long an entry suppresses a repeat notification.
	Retention = 24 * time.Hour
)

// OverdueKey identifies an overdue reminder for a task.
func OverdueKey(taskID string) string {
	return "overdue_" + taskID
}

// TodayKey identifies a due-today reminder for a task.
func TodayKey(taskID string) string {
	return "today_" + taskID
}

// UpcomingKey identifies an upcoming reminder at a given countdown value.
func UpcomingKey(taskID string, daysUntil int) string {
	return fmt.Sprintf("upcoming_%s_%d", taskID, daysUntil)
}

// Entry is one remembered notification.
type Entry struct {
	Key        string    `json:"key"`
	NotifiedAt time.Time `json:"notifiedAt"`
}

// Ledger maps notification keys to the epoch millis they were last surfaced.
type Ledger struct {
	kv     kv.Store
	clock  clock.Clock
	logger log.FieldLogger
}

// New creates a ledger.
func New(store kv.Store, c clock.Clock, logger log.FieldLogger) *Ledger {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Ledger{kv: store, clock: c, logger: logger.WithField("component", "ledger")}
}

// load reads the map and drops entries older than Retention, writing the pruned map back.
func (l *Ledger) load(ctx context.Context) map[string]int64 {
	items := map[string]int64{}

	raw, err := l.kv.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			l.logger.WithError(err).Warn("Failed to read notification ledger")
		}
		return items
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		l.logger.WithError(err).Warn("Notification ledger is corrupt, starting empty")
		return map[string]int64{}
	}

	cutoff := l.clock.Now().Add(-Retention).UnixMilli()
	pruned := false
	for k, ts := range items {
		if ts < cutoff {
			delete(items, k)
			pruned = true
		}
	}
	if pruned {
		l.save(ctx, items)
	}
	return items
}

func (l *Ledger) save(ctx context.Context, items map[string]int64) {
	data, err := json.Marshal(items)
	if err != nil {
		l.logger.WithError(err).Error("Failed to encode notification ledger")
		return
	}
	if err := l.kv.Set(ctx, Key, string(data)); err != nil {
		l.logger.WithError(err).Error("Failed to save notification ledger")
	}
}

// IsNotified reports whether key was surfaced within the retention window.
func (l *Ledger) IsNotified(ctx context.Context, key string) bool {
	_, ok := l.load(ctx)[key]
	return ok
}

// MarkNotified records key as surfaced now.
func (l *Ledger) MarkNotified(ctx context.Context, key string) {
	l.MarkAll(ctx, []string{key})
}

// MarkAll records several keys with a single read-modify-write.
func (l *Ledger) MarkAll(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	items := l.load(ctx)
	now := l.clock.Now().UnixMilli()
	for _, k := range keys {
		items[k] = now
	}
	l.save(ctx, items)
}

// Filter returns the subset of keys not yet surfaced, reading the ledger once.
func (l *Ledger) Filter(ctx context.Context, keys []string) []string {
	items := l.load(ctx)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := items[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Entries lists the live entries, most recent first.
func (l *Ledger) Entries(ctx context.Context) []Entry {
	items := l.load(ctx)
	out := make([]Entry, 0, len(items))
	for k, ts := range items {
		out = append(out, Entry{Key: k, NotifiedAt: time.UnixMilli(ts).In(l.clock.Now().Location())})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NotifiedAt.Equal(out[j].NotifiedAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].NotifiedAt.After(out[j].NotifiedAt)
	})
	return out
}

// Clear forgets every entry.
func (l *Ledger) Clear(ctx context.Context) {
	if err := l.kv.Delete(ctx, Key); err != nil {
		l.logger.WithError(err).Error("Failed to clear notification ledger")
	}
}
