package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/markalston/virt-dashboard/backend/cache"
	"github.com/markalston/virt-dashboard/backend/config"
	"github.com/markalston/virt-dashboard/backend/metrics"
	"github.com/markalston/virt-dashboard/backend/middleware"
	"github.com/markalston/virt-dashboard/backend/render"
	"github.com/markalston/virt-dashboard/backend/services"
	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/plugin"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/view"
)

const samplePath = "../../internal/snapshot/testdata/sample.json"

type fakeRefresher struct {
	next  *snapshot.Snapshot
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.next, nil
}

func (f *fakeRefresher) Status() services.RefreshStatus {
	return services.RefreshStatus{Source: "file", LastError: "previous failure"}
}

type fakeConnection bool

func (c fakeConnection) IsConnected() bool { return bool(c) }

func loadSample(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	s, err := snapshot.Load(samplePath)
	if err != nil {
		t.Fatalf("Failed to load sample snapshot: %v", err)
	}
	return s
}

// newTestHandler serves the sample snapshot with every optional
// collaborator wired.
func newTestHandler(t *testing.T, deps Dependencies) (*Handler, *cache.Cache[[]byte]) {
	t.Helper()
	loc := intl.New("en")

	if deps.Store == nil {
		deps.Store = &snapshot.Store{}
		deps.Store.Swap(loadSample(t))
	}
	if deps.Dashboard == nil {
		d, err := view.NewGlobalDashboard(loc)
		if err != nil {
			t.Fatalf("NewGlobalDashboard: %v", err)
		}
		deps.Dashboard = d
	}
	if deps.Renderer == nil {
		r, err := render.New(loc, "en", render.Paths{
			Tab:      "/plugin/main-tab.html",
			Navigate: "/api/v1/navigate",
			Refresh:  "/api/v1/refresh",
		}, time.Now)
		if err != nil {
			t.Fatalf("render.New: %v", err)
		}
		deps.Renderer = r
	}

	c := cache.New[[]byte](t.Context(), 5*time.Minute)
	cfg := &config.Config{PluginBasePath: "/plugin"}
	return NewHandler(cfg, c, deps), c
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestHealthHandler_NoSnapshot(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{Store: &snapshot.Store{}})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest("GET", "/api/v1/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("Expected status degraded, got %s", resp.Status)
	}
	if resp.Snapshot.Available {
		t.Error("Expected snapshot unavailable")
	}
	if resp.VSphere != "not_configured" {
		t.Errorf("Expected vsphere not_configured, got %s", resp.VSphere)
	}
	if resp.Refresh != nil {
		t.Errorf("Expected no refresh status, got %+v", resp.Refresh)
	}
}

func TestHealthHandler_WithSnapshotAndVSphere(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{
		Refresher: &fakeRefresher{},
		VSphere:   fakeConnection(true),
	})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest("GET", "/api/v1/health", nil))

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Expected status ok, got %s", resp.Status)
	}
	if resp.Snapshot.Source != "sample" {
		t.Errorf("Expected source sample, got %s", resp.Snapshot.Source)
	}
	if resp.VSphere != "connected" {
		t.Errorf("Expected vsphere connected, got %s", resp.VSphere)
	}
	if resp.Refresh == nil || resp.Refresh.LastError != "previous failure" {
		t.Errorf("Expected refresh status with last error, got %+v", resp.Refresh)
	}
}

func TestSnapshotHandler_NoSnapshot(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{Store: &snapshot.Store{}})

	w := httptest.NewRecorder()
	h.Snapshot(w, httptest.NewRequest("GET", "/api/v1/snapshot", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != http.StatusServiceUnavailable || resp.Error == "" {
		t.Errorf("Unexpected error body: %+v", resp)
	}
}

func TestSnapshotHandler_CachesResponse(t *testing.T) {
	h, c := newTestHandler(t, Dependencies{})

	first := httptest.NewRecorder()
	h.Snapshot(first, httptest.NewRequest("GET", "/api/v1/snapshot", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", first.Code)
	}
	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("Expected first response MISS, got %s", got)
	}

	second := httptest.NewRecorder()
	h.Snapshot(second, httptest.NewRequest("GET", "/api/v1/snapshot", nil))
	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("Expected second response HIT, got %s", got)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 cache entry, got %d", c.Len())
	}

	s, err := snapshot.Decode(second.Body)
	if err != nil {
		t.Fatalf("Cached body is not a valid snapshot: %v", err)
	}
	if s.Source != "sample" {
		t.Errorf("Expected source sample, got %s", s.Source)
	}
}

func TestSnapshotHandler_StaleWriteAfterSwapNotServed(t *testing.T) {
	store := &snapshot.Store{}
	store.Swap(loadSample(t))
	h, c := newTestHandler(t, Dependencies{Store: store})

	// A request reads snapshot N, then a refresh swaps in N+1 and flushes
	// before that request stores its body.
	old, gen, err := store.CurrentGeneration()
	if err != nil {
		t.Fatalf("CurrentGeneration: %v", err)
	}
	next := loadSample(t)
	next.Source = "vsphere"
	store.Swap(next)
	c.Flush()
	if _, _, err := h.cached(generationKey(cacheKeySnapshot, gen), func() (any, error) { return old, nil }); err != nil {
		t.Fatalf("cached: %v", err)
	}

	w := httptest.NewRecorder()
	h.Snapshot(w, httptest.NewRequest("GET", "/api/v1/snapshot", nil))
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("Expected MISS for the new snapshot, got %s", got)
	}
	s, err := snapshot.Decode(w.Body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Source != "vsphere" {
		t.Errorf("Expected the swapped-in snapshot, got source %s", s.Source)
	}
}

func TestDashboardHandler(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{})

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest("GET", "/api/v1/dashboard?dialog=memory", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var v view.DashboardView
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode dashboard: %v", err)
	}
	if len(v.StatusCards) != 6 {
		t.Errorf("Expected 6 status cards, got %d", len(v.StatusCards))
	}
	if len(v.Utilization) != 3 {
		t.Fatalf("Expected 3 utilization cards, got %d", len(v.Utilization))
	}
	if v.Utilization[0].Dialog.Visible {
		t.Error("Expected cpu dialog hidden")
	}
	if !v.Utilization[1].Dialog.Visible {
		t.Error("Expected memory dialog visible")
	}
}

func TestDashboardHandler_InvalidDialog(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{})

	w := httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest("GET", "/api/v1/dashboard?dialog=gpu", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Details == "" {
		t.Error("Expected error details")
	}
}

func TestDashboardHandler_CachedPerDialog(t *testing.T) {
	h, c := newTestHandler(t, Dependencies{})

	for _, target := range []string{
		"/api/v1/dashboard",
		"/api/v1/dashboard?dialog=cpu",
		"/api/v1/dashboard?dialog=cpu",
	} {
		h.Dashboard(httptest.NewRecorder(), httptest.NewRequest("GET", target, nil))
	}

	if c.Len() != 2 {
		t.Errorf("Expected 2 cache entries, got %d", c.Len())
	}
}

func TestRefreshHandler_FlushesCache(t *testing.T) {
	next := loadSample(t)
	next.Source = "vsphere"
	refresher := &fakeRefresher{next: next}
	h, c := newTestHandler(t, Dependencies{Refresher: refresher})

	h.Snapshot(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/snapshot", nil))
	if c.Len() != 1 {
		t.Fatalf("Expected primed cache, got %d entries", c.Len())
	}

	w := httptest.NewRecorder()
	h.Refresh(w, httptest.NewRequest("POST", "/api/v1/refresh", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp RefreshResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Source != "vsphere" || resp.Status != "refreshed" {
		t.Errorf("Unexpected refresh response: %+v", resp)
	}
	if refresher.calls != 1 {
		t.Errorf("Expected 1 refresh call, got %d", refresher.calls)
	}
	if c.Len() != 0 {
		t.Errorf("Expected cache flushed, got %d entries", c.Len())
	}
}

func TestRefreshHandler_Failure(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{Refresher: &fakeRefresher{err: errors.New("vcenter unreachable")}})

	w := httptest.NewRecorder()
	h.Refresh(w, httptest.NewRequest("POST", "/api/v1/refresh", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Details != "vcenter unreachable" {
		t.Errorf("Expected source error in details, got %q", resp.Details)
	}
}

func TestRefreshHandler_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{})

	w := httptest.NewRecorder()
	h.Refresh(w, httptest.NewRequest("POST", "/api/v1/refresh", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestNavigateHandler(t *testing.T) {
	rec := &search.Recorder{}
	h, _ := newTestHandler(t, Dependencies{Navigator: rec})

	body := `{"place":"hosts","filters":[{"name":"name","values":["host-02"]}]}`
	w := httptest.NewRecorder()
	h.Navigate(w, httptest.NewRequest("POST", "/api/v1/navigate", strings.NewReader(body)))

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp NavigateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Query != "Hosts: name = host-02" {
		t.Errorf("Unexpected query: %s", resp.Query)
	}

	last, ok := rec.Last()
	if !ok {
		t.Fatal("Expected a forwarded search")
	}
	if last.Place != search.PlaceHost || last.Prefix != search.PrefixHost {
		t.Errorf("Unexpected forwarded search: %+v", last)
	}
}

func TestNavigateHandler_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"place":`},
		{"unknown field", `{"place":"hosts","extra":1}`},
		{"missing place", `{"prefix":"Hosts"}`},
		{"unknown place", `{"place":"networks"}`},
		{"prefix mismatch", `{"place":"hosts","prefix":"Vms"}`},
		{"bad operator", `{"place":"events","filters":[{"name":"time","values":["x"],"operator":"~"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &search.Recorder{}
			h, _ := newTestHandler(t, Dependencies{Navigator: rec})

			w := httptest.NewRecorder()
			h.Navigate(w, httptest.NewRequest("POST", "/api/v1/navigate", strings.NewReader(tt.body)))

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			if len(rec.Requests()) != 0 {
				t.Error("Rejected request must not be forwarded")
			}
		})
	}
}

func TestPluginHandler(t *testing.T) {
	manifest := plugin.NewManifest()
	err := plugin.Register(context.Background(), manifest, plugin.Config{Title: "Dashboard", BasePath: "/plugin"}, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	h, _ := newTestHandler(t, Dependencies{Manifest: manifest})

	w := httptest.NewRecorder()
	h.Plugin(w, httptest.NewRequest("GET", "/api/v1/plugin", nil))

	var info plugin.ManifestInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode manifest: %v", err)
	}
	if !info.Ready {
		t.Error("Expected manifest ready")
	}
	if len(info.Places) != 1 || info.Places[0].URL != "/plugin/main-tab.html" {
		t.Errorf("Unexpected places: %+v", info.Places)
	}
}

func TestPluginHandler_NotRegistered(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{})

	w := httptest.NewRecorder()
	h.Plugin(w, httptest.NewRequest("GET", "/api/v1/plugin", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestMainTabHandler(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{})

	w := httptest.NewRecorder()
	h.MainTab(w, httptest.NewRequest("GET", "/plugin/main-tab.html?dialog=cpu", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "host-02") {
		t.Error("Expected open cpu dialog to list host-02")
	}
}

func TestMainTabHandler_NoSnapshot(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{Store: &snapshot.Store{}})

	w := httptest.NewRecorder()
	h.MainTab(w, httptest.NewRequest("GET", "/plugin/main-tab.html", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestRouter_ServesRoutesWithMiddleware(t *testing.T) {
	m := metrics.New()
	h, _ := newTestHandler(t, Dependencies{Metrics: m})
	srv := httptest.NewServer(h.Router(
		middleware.LogRequest,
		middleware.CORSWithConfig([]string{"http://console.example"}),
	))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get(middleware.RequestIDHeader) == "" {
		t.Error("Expected request id header")
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Reading metrics: %v", err)
	}
	resp.Body.Close()
	if !strings.Contains(buf.String(), `virt_dashboard_http_requests_total{code="200",method="GET",route="/api/v1/health"} 1`) {
		t.Errorf("Expected instrumented health request in metrics output")
	}
}

func TestRouter_Preflight(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{})
	router := h.Router(middleware.CORSWithConfig([]string{"http://console.example"}))

	req := httptest.NewRequest("OPTIONS", "/api/v1/navigate", nil)
	req.Header.Set("Origin", "http://console.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://console.example" {
		t.Errorf("Expected echoed origin, got %q", got)
	}
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, Dependencies{})
	router := h.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != http.StatusNotFound {
		t.Errorf("Expected JSON 404 body, got %+v", resp)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/refresh", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}
