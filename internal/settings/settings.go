// Package settings persists the user's notification preferences.
package settings

import (
	"context"
	"encoding/json"
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/kv"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Key is the storage key for the settings document.
const Key = "maintenance_notification_settings"

// Store reads and writes NotificationSettings through a kv.Store.
type Store struct {
	kv     kv.Store
	logger log.FieldLogger
}

// NewStore creates a settings store.
func NewStore(store kv.Store, logger log.FieldLogger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{kv: store, logger: logger.WithField("component", "settings")}
}

// Get returns the stored settings merged over the defaults. Stored keys win one by one; an
// out-of-range number falls back to its own default. Missing or unreadable settings yield
// the defaults. Get never fails.
func (s *Store) Get(ctx context.Context) models.NotificationSettings {
	defaults := models.DefaultNotificationSettings()

	raw, err := s.kv.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.WithError(err).Warn("Failed to read notification settings, using defaults")
		}
		return defaults
	}

	merged := defaults
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		s.logger.WithError(err).Warn("Stored notification settings are corrupt, using defaults")
		return defaults
	}
	if err := merged.Validate(); err != nil {
		s.logger.WithError(err).Warn("Stored notification settings out of range, resetting those fields")
		merged = merged.WithRangeDefaults()
	}
	return merged
}

// Save persists settings. It reports false, after logging, when they cannot be stored.
func (s *Store) Save(ctx context.Context, settings models.NotificationSettings) bool {
	data, err := json.Marshal(settings)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode notification settings")
		return false
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		s.logger.WithError(err).Error("Failed to save notification settings")
		return false
	}
	return true
}
