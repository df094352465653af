// ABOUTME: HTTP handler for the health endpoint
// ABOUTME: Reports snapshot availability, refresh outcome and vSphere status

package handlers

import (
	"net/http"
	"time"

	"github.com/markalston/virt-dashboard/backend/services"
)

// SnapshotStatus describes the snapshot currently served.
type SnapshotStatus struct {
	Available   bool      `json:"available"`
	Source      string    `json:"source,omitempty"`
	CollectedAt time.Time `json:"collected_at,omitzero"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status       string                  `json:"status"`
	Snapshot     SnapshotStatus          `json:"snapshot"`
	Refresh      *services.RefreshStatus `json:"refresh,omitempty"`
	VSphere      string                  `json:"vsphere"`
	CacheEntries int                     `json:"cache_entries"`
}

// Health answers 200 whenever the process is serving. Status is "degraded"
// until a snapshot is available.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "degraded",
		VSphere: "not_configured",
	}

	if s, err := h.store.Current(); err == nil {
		resp.Status = "ok"
		resp.Snapshot = SnapshotStatus{
			Available:   true,
			Source:      s.Source,
			CollectedAt: s.CollectedAt,
		}
	}

	if h.refresher != nil {
		status := h.refresher.Status()
		resp.Refresh = &status
	}

	if h.vsphere != nil {
		resp.VSphere = "disconnected"
		if h.vsphere.IsConnected() {
			resp.VSphere = "connected"
		}
	}

	if h.cache != nil {
		resp.CacheEntries = h.cache.Len()
	}

	h.writeJSON(w, http.StatusOK, resp)
}
