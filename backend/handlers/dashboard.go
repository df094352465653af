// ABOUTME: HTTP handlers for snapshots, dashboard views and refresh
// ABOUTME: Serves cached JSON and the rendered plugin main tab

package handlers

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	cacheKeySnapshot  = "snapshot"
	cacheKeyDashboard = "dashboard:"
)

// RefreshResponse is the body of a successful POST /api/v1/refresh.
type RefreshResponse struct {
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	CollectedAt time.Time `json:"collected_at"`
}

// Snapshot returns the raw current snapshot.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	s, gen := h.currentSnapshot(w)
	if s == nil {
		return
	}

	body, hit, err := h.cached(generationKey(cacheKeySnapshot, gen), func() (any, error) { return s, nil })
	if err != nil {
		slog.Error("Encoding snapshot failed", "error", err)
		h.writeError(w, "Failed to encode snapshot", http.StatusInternalServerError)
		return
	}
	slog.Debug("Snapshot served", "cache_hit", hit)
	h.writeRawJSON(w, http.StatusOK, body, hit)
}

// Dashboard returns the composed dashboard view. ?dialog=cpu|memory|storage
// opens that card's drill-down dialog.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	state, dialog, err := dashboardState(r)
	if err != nil {
		h.writeErrorWithDetails(w, "Invalid dialog", err.Error(), http.StatusBadRequest)
		return
	}
	if h.dashboard == nil {
		h.writeError(w, "Dashboard not configured", http.StatusServiceUnavailable)
		return
	}

	s, gen := h.currentSnapshot(w)
	if s == nil {
		return
	}

	body, hit, err := h.cached(generationKey(cacheKeyDashboard+dialog, gen), func() (any, error) {
		return h.dashboard.Build(s, state), nil
	})
	if err != nil {
		slog.Error("Encoding dashboard failed", "error", err)
		h.writeError(w, "Failed to encode dashboard", http.StatusInternalServerError)
		return
	}
	h.writeRawJSON(w, http.StatusOK, body, hit)
}

// Refresh fetches a new snapshot immediately and drops cached responses.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		h.writeError(w, "Refresh not configured", http.StatusServiceUnavailable)
		return
	}

	s, err := h.refresher.Refresh(r.Context())
	if err != nil {
		slog.Error("Manual refresh failed", "error", err)
		h.writeErrorWithDetails(w, "Snapshot refresh failed", err.Error(), http.StatusBadGateway)
		return
	}
	h.InvalidateCache()

	h.writeJSON(w, http.StatusOK, RefreshResponse{
		Status:      "refreshed",
		Source:      s.Source,
		CollectedAt: s.CollectedAt,
	})
}

// MainTab renders the dashboard as the plugin's HTML main tab.
func (h *Handler) MainTab(w http.ResponseWriter, r *http.Request) {
	state, _, err := dashboardState(r)
	if err != nil {
		h.writeErrorWithDetails(w, "Invalid dialog", err.Error(), http.StatusBadRequest)
		return
	}
	if h.dashboard == nil || h.renderer == nil {
		h.writeError(w, "Main tab not configured", http.StatusServiceUnavailable)
		return
	}

	s, _ := h.currentSnapshot(w)
	if s == nil {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.MainTab(w, h.dashboard.Build(s, state)); err != nil {
		slog.Error("Rendering main tab failed", "error", err)
		h.writeError(w, "Failed to render dashboard", http.StatusInternalServerError)
	}
}
