package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/ledger"
)

// LedgerReader lists remembered notifications.
type LedgerReader interface {
	Entries(ctx context.Context) []ledger.Entry
}

// SettingsHandler handles the notification settings endpoints
type SettingsHandler struct {
	settings SettingsStore
	ledger   LedgerReader
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings SettingsStore, ledger LedgerReader) *SettingsHandler {
	return &SettingsHandler{settings: settings, ledger: ledger}
}

// Get returns the effective settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Get(r.Context()))
}

// Update merges the request body over the current settings, validates and saves them.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	s := h.settings.Get(r.Context())
	if err := json.Unmarshal(body, &s); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := s.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.settings.Save(r.Context(), s) {
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Ledger lists the notifications remembered in the last day
func (h *SettingsHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Entries(r.Context()))
}
