// ABOUTME: HTTP handlers for the dashboard API and plugin main tab
// ABOUTME: Serves snapshots, dashboard views, refresh and navigation requests

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/markalston/virt-dashboard/backend/cache"
	"github.com/markalston/virt-dashboard/backend/config"
	"github.com/markalston/virt-dashboard/backend/metrics"
	"github.com/markalston/virt-dashboard/backend/middleware"
	"github.com/markalston/virt-dashboard/backend/render"
	"github.com/markalston/virt-dashboard/backend/services"
	"github.com/markalston/virt-dashboard/internal/plugin"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/view"
)

// maxNavigateBody bounds the size of a navigation request body.
const maxNavigateBody = 64 << 10

// Refresher replaces the current snapshot on demand.
type Refresher interface {
	Refresh(ctx context.Context) (*snapshot.Snapshot, error)
	Status() services.RefreshStatus
}

// ConnectionChecker reports whether a live data source is connected.
type ConnectionChecker interface {
	IsConnected() bool
}

// Dependencies are the collaborators a Handler serves from. Only Store and
// Dashboard are required.
type Dependencies struct {
	Store     *snapshot.Store
	Refresher Refresher
	Dashboard *view.GlobalDashboard
	Renderer  *render.Renderer
	Navigator search.Navigator
	Manifest  *plugin.Manifest
	Metrics   *metrics.Metrics
	VSphere   ConnectionChecker
}

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse = middleware.ErrorResponse

type Handler struct {
	cfg       *config.Config
	cache     *cache.Cache[[]byte]
	store     *snapshot.Store
	refresher Refresher
	dashboard *view.GlobalDashboard
	renderer  *render.Renderer
	navigator search.Navigator
	manifest  *plugin.Manifest
	metrics   http.Handler
	observer  middleware.RequestObserver
	vsphere   ConnectionChecker
}

func NewHandler(cfg *config.Config, c *cache.Cache[[]byte], deps Dependencies) *Handler {
	h := &Handler{
		cfg:       cfg,
		cache:     c,
		store:     deps.Store,
		refresher: deps.Refresher,
		dashboard: deps.Dashboard,
		renderer:  deps.Renderer,
		navigator: deps.Navigator,
		manifest:  deps.Manifest,
		vsphere:   deps.VSphere,
	}
	if h.store == nil {
		h.store = &snapshot.Store{}
	}
	if h.navigator == nil {
		h.navigator = search.LogNavigator{}
	}
	if deps.Metrics != nil {
		h.metrics = deps.Metrics.Handler()
		h.observer = deps.Metrics
	}
	return h
}

// InvalidateCache drops every cached response.
func (h *Handler) InvalidateCache() {
	if h.cache != nil {
		h.cache.Flush()
	}
}

// cached returns the JSON for key, building and storing it on a miss.
func (h *Handler) cached(key string, build func() (any, error)) ([]byte, bool, error) {
	if h.cache != nil {
		if body, ok := h.cache.Get(key); ok {
			return body, true, nil
		}
	}
	v, err := build()
	if err != nil {
		return nil, false, err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	if h.cache != nil {
		h.cache.Set(key, body)
	}
	return body, false, nil
}

// currentSnapshot writes a 503 and returns nil when nothing has been
// collected yet. The returned generation scopes cache keys to the snapshot.
func (h *Handler) currentSnapshot(w http.ResponseWriter) (*snapshot.Snapshot, uint64) {
	s, gen, err := h.store.CurrentGeneration()
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		h.writeErrorWithDetails(w, "No snapshot available yet", "the first refresh has not completed", http.StatusServiceUnavailable)
		return nil, 0
	}
	if err != nil {
		slog.Error("Reading current snapshot failed", "error", err)
		h.writeError(w, "Failed to read snapshot", http.StatusInternalServerError)
		return nil, 0
	}
	return s, gen
}

// generationKey scopes key to one snapshot generation. A response built
// from an older snapshot is stored under a key no later request asks for.
func generationKey(key string, gen uint64) string {
	return key + "@" + strconv.FormatUint(gen, 10)
}

// dashboardState opens the dialog named by the ?dialog= query parameter.
func dashboardState(r *http.Request) (view.DashboardState, string, error) {
	name := r.URL.Query().Get("dialog")
	if name == "" {
		return view.DashboardState{}, "", nil
	}
	res, ok := view.ParseResource(name)
	if !ok {
		return view.DashboardState{}, "", errors.New("dialog must be one of cpu, memory, storage")
	}
	return view.DashboardState{}.WithCard(res, view.CardState{}.Open()), name, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeRawJSON(w http.ResponseWriter, status int, body []byte, hit bool) {
	w.Header().Set("Content-Type", "application/json")
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(status)
	w.Write(body)
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeErrorWithDetails(w, message, "", code)
}

func (h *Handler) writeErrorWithDetails(w http.ResponseWriter, message, details string, code int) {
	middleware.WriteError(w, message, details, code)
}
