// ABOUTME: HTTP handlers for navigation, plugin manifest and metrics
// ABOUTME: Forwards validated search requests to the configured navigator

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/markalston/virt-dashboard/backend/services"
	"github.com/markalston/virt-dashboard/internal/search"
)

// NavigateResponse echoes the search string a forwarded request produced.
type NavigateResponse struct {
	Query string `json:"query"`
}

// Navigate forwards one search request to the navigator. Forwarding is
// fire-and-forget, so success is 202.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNavigateBody)

	var req search.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeErrorWithDetails(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := services.ValidateNavigation(&req); err != nil {
		h.writeErrorWithDetails(w, "Invalid search request", err.Error(), http.StatusBadRequest)
		return
	}

	search.Apply(h.navigator, req)
	h.writeJSON(w, http.StatusAccepted, NavigateResponse{Query: req.Query()})
}

// Plugin returns the primary menu places registered with the console host.
func (h *Handler) Plugin(w http.ResponseWriter, r *http.Request) {
	if h.manifest == nil {
		h.writeError(w, "Plugin not registered", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, h.manifest.Info())
}

// Metrics serves the prometheus registry.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		h.writeError(w, "Metrics not enabled", http.StatusNotFound)
		return
	}
	h.metrics.ServeHTTP(w, r)
}
