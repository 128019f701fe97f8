package ledger

import (
	"context"
	"io"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/clock"
	"github.com/ukydev/fleet-maintenance/internal/kv"
)

func newTestLedger() (*Ledger, *clock.Fake, *kv.MemoryStore) {
	l := log.New()
	l.SetOutput(io.Discard)
	store := kv.NewMemoryStore()
	c := clock.NewFake(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	return New(store, c, l), c, store
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "overdue_TASK1", OverdueKey("TASK1"))
	assert.Equal(t, "today_TASK1", TodayKey("TASK1"))
	assert.Equal(t, "upcoming_TASK1_3", UpcomingKey("TASK1", 3))
}

func TestLedger_ExpiresAfterRetention(t *testing.T) {
	ctx := context.Background()
	led, c, _ := newTestLedger()

	assert.False(t, led.IsNotified(ctx, "overdue_TASK1"))
	led.MarkNotified(ctx, "overdue_TASK1")
	assert.True(t, led.IsNotified(ctx, "overdue_TASK1"))

	c.Advance(23 * time.Hour)
	assert.True(t, led.IsNotified(ctx, "overdue_TASK1"))

	c.Advance(2 * time.Hour)
	assert.False(t, led.IsNotified(ctx, "overdue_TASK1"))
}

func TestLedger_UpcomingCountdownRenotifies(t *testing.T) {
	ctx := context.Background()
	led, _, _ := newTestLedger()

	led.MarkNotified(ctx, UpcomingKey("T", 3))
	assert.True(t, led.IsNotified(ctx, UpcomingKey("T", 3)))
	assert.False(t, led.IsNotified(ctx, UpcomingKey("T", 1)))
}

func TestLedger_ReadPrunesAndWritesBack(t *testing.T) {
	ctx := context.Background()
	led, c, store := newTestLedger()

	led.MarkNotified(ctx, "overdue_OLD")
	c.Advance(20 * time.Hour)
	led.MarkNotified(ctx, "today_NEW")
	c.Advance(5 * time.Hour)

	assert.False(t, led.IsNotified(ctx, "overdue_OLD"))

	raw, err := store.Get(ctx, Key)
	require.NoError(t, err)
	assert.NotContains(t, raw, "overdue_OLD")
	assert.Contains(t, raw, "today_NEW")
}

func TestLedger_FilterAndMarkAll(t *testing.T) {
	ctx := context.Background()
	led, _, _ := newTestLedger()

	led.MarkAll(ctx, []string{"overdue_A", "today_B"})
	fresh := led.Filter(ctx, []string{"overdue_A", "today_B", "upcoming_C_2"})
	assert.Equal(t, []string{"upcoming_C_2"}, fresh)

	entries := led.Entries(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, "overdue_A", entries[0].Key)
}

func TestLedger_CorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	led, _, store := newTestLedger()
	require.NoError(t, store.Set(ctx, Key, "[1,2"))

	assert.False(t, led.IsNotified(ctx, "overdue_A"))
	led.MarkNotified(ctx, "overdue_A")
	assert.True(t, led.IsNotified(ctx, "overdue_A"))
}

func TestLedger_Clear(t *testing.T) {
	ctx := context.Background()
	led, _, _ := newTestLedger()
	led.MarkNotified(ctx, "overdue_A")
	led.Clear(ctx)
	assert.Empty(t, led.Entries(ctx))
}
