package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// NewRouter wires the API routes behind authentication and per-route permissions.
// /health and /metrics are public.
func NewRouter(mh *MaintenanceHandler, sh *SettingsHandler, authMW *middleware.AuthMiddleware, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	guard := func(action string, h http.HandlerFunc) http.Handler {
		return authMW.Authenticate(authMW.RequirePermission(action)(h))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	mux.Handle("GET /api/maintenance/summary", guard(models.ActionViewMaintenance, mh.Summary))
	mux.Handle("POST /api/maintenance/check", guard(models.ActionRunCheck, mh.Check))
	mux.Handle("POST /api/maintenance", guard(models.ActionCreateMaintenance, mh.Create))
	mux.Handle("POST /api/maintenance/{id}/start", guard(models.ActionUpdateMaintenance, mh.Start))
	mux.Handle("POST /api/maintenance/{id}/complete", guard(models.ActionUpdateMaintenance, mh.Complete))
	mux.Handle("POST /api/maintenance/{id}/cancel", guard(models.ActionUpdateMaintenance, mh.Cancel))

	mux.Handle("GET /api/notifications/settings", guard(models.ActionViewMaintenance, sh.Get))
	mux.Handle("PUT /api/notifications/settings", guard(models.ActionManageSettings, sh.Update))
	mux.Handle("GET /api/notifications/ledger", guard(models.ActionViewMaintenance, sh.Ledger))

	return mux
}
