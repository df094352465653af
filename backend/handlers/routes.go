// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes and mounts them on a chi router

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markalston/virt-dashboard/backend/middleware"
	"github.com/markalston/virt-dashboard/internal/plugin"
)

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path (e.g., "/api/v1/health")
	Handler http.HandlerFunc // Handler function
}

// Routes returns all routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health & Status
		{Method: http.MethodGet, Path: "/api/v1/health", Handler: h.Health},
		{Method: http.MethodGet, Path: "/metrics", Handler: h.Metrics},

		// Dashboard data
		{Method: http.MethodGet, Path: "/api/v1/snapshot", Handler: h.Snapshot},
		{Method: http.MethodGet, Path: "/api/v1/dashboard", Handler: h.Dashboard},
		{Method: http.MethodPost, Path: "/api/v1/refresh", Handler: h.Refresh},

		// Console plugin
		{Method: http.MethodPost, Path: "/api/v1/navigate", Handler: h.Navigate},
		{Method: http.MethodGet, Path: "/api/v1/plugin", Handler: h.Plugin},
		{Method: http.MethodGet, Path: h.MainTabPath(), Handler: h.MainTab},
	}
}

// MainTabPath is where the plugin main tab is served, under PLUGIN_BASE_PATH.
func (h *Handler) MainTabPath() string {
	base := "/plugin"
	if h.cfg != nil && h.cfg.PluginBasePath != "" {
		base = h.cfg.PluginBasePath
	}
	return plugin.DashboardPlace(plugin.Config{BasePath: base}).URL
}

// Router mounts every route on a chi router. Each route is instrumented under
// its pattern, then wrapped by mws (first is outermost). Every path also
// accepts OPTIONS so CORS middleware can answer preflight requests.
func (h *Handler) Router(mws ...middleware.Middleware) http.Handler {
	router := chi.NewRouter()

	preflight := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
	seen := make(map[string]bool)
	for _, route := range h.Routes() {
		handler := route.Handler
		if h.observer != nil {
			handler = middleware.Instrument(h.observer, route.Path)(handler)
		}
		router.Method(route.Method, route.Path, middleware.Chain(handler, mws...))

		if !seen[route.Path] {
			seen[route.Path] = true
			router.Options(route.Path, middleware.Chain(preflight, mws...))
		}
	}

	router.NotFound(middleware.Chain(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, "Not found", http.StatusNotFound)
	}, mws...))
	router.MethodNotAllowed(middleware.Chain(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}, mws...))
	return router
}
