// Package throttle enforces a minimum interval between notification sweeps.
package throttle

import (
	"context"
	"errors"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/clock"
	"github.com/ukydev/fleet-maintenance/internal/kv"
)

// Key is the storage key for the last-run timestamp (epoch millis).
const Key = "maintenance_last_check"

// Gate decides whether enough time has passed since the last sweep.
type Gate struct {
	kv     kv.Store
	clock  clock.Clock
	logger log.FieldLogger
}

// New creates a gate.
func New(store kv.Store, c clock.Clock, logger log.FieldLogger) *Gate {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Gate{kv: store, clock: c, logger: logger.WithField("component", "throttle")}
}

// LastRun returns the time of the last recorded sweep, if any.
func (g *Gate) LastRun(ctx context.Context) (time.Time, bool) {
	raw, err := g.kv.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			g.logger.WithError(err).Warn("Failed to read last check time")
		}
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		g.logger.WithField("value", raw).Warn("Ignoring unparsable last check time")
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// ShouldRun reports true when no sweep was recorded or at least intervalMinutes have elapsed.
func (g *Gate) ShouldRun(ctx context.Context, intervalMinutes int) bool {
	last, ok := g.LastRun(ctx)
	if !ok {
		return true
	}
	return g.clock.Now().Sub(last) >= time.Duration(intervalMinutes)*time.Minute
}

// RecordRun stores the current time as the last sweep.
func (g *Gate) RecordRun(ctx context.Context) {
	value := strconv.FormatInt(g.clock.Now().UnixMilli(), 10)
	if err := g.kv.Set(ctx, Key, value); err != nil {
		g.logger.WithError(err).Error("Failed to record check time")
	}
}
