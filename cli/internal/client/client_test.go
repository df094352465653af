// ABOUTME: Tests for the dashboard API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/markalston/virt-dashboard/internal/search"
)

const samplePath = "../../../internal/snapshot/testdata/sample.json"

func TestHealth_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("expected path /api/v1/health, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(HealthResponse{
			Status:  "ok",
			VSphere: "connected",
		})
	}))
	defer server.Close()

	c := New(server.URL)
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %s", resp.Status)
	}
	if resp.VSphere != "connected" {
		t.Errorf("expected vsphere connected, got %s", resp.VSphere)
	}
}

func TestHealth_ConnectionError(t *testing.T) {
	c := New("http://localhost:99999")
	_, err := c.Health(context.Background())
	if err == nil {
		t.Error("expected connection error, got nil")
	}
}

func TestHealth_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Health(context.Background())
	if err == nil {
		t.Fatal("expected error for non-OK status, got nil")
	}
	if !strings.Contains(err.Error(), "internal error") {
		t.Errorf("expected backend message in error, got %v", err)
	}
}

func TestHealth_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
	}))
	defer server.Close()

	c := New(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := c.Health(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context, got nil")
	}
	if err.Error() != "request canceled" {
		t.Errorf("expected friendly cancel message, got %v", err)
	}
}

func TestSnapshot_DecodesAndValidates(t *testing.T) {
	data, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatalf("reading sample: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/snapshot" {
			t.Errorf("expected path /api/v1/snapshot, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer server.Close()

	c := New(server.URL + "/")
	s, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Source != "sample" {
		t.Errorf("expected source sample, got %s", s.Source)
	}
	if c.Name() != "api" {
		t.Errorf("expected source name api, got %s", c.Name())
	}
}

func TestSnapshot_ServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error:   "No snapshot available yet",
			Details: "the first refresh has not completed",
			Code:    http.StatusServiceUnavailable,
		})
	}))
	defer server.Close()

	_, err := New(server.URL).Snapshot(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	want := "backend error: No snapshot available yet: the first refresh has not completed"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestDashboard_PassesDialog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("dialog"); got != "storage" {
			t.Errorf("expected dialog storage, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Dashboard","utilization":[{"resource":"storage","title":"Storage","dialog":{"visible":true}}]}`))
	}))
	defer server.Close()

	v, err := New(server.URL).Dashboard(context.Background(), "storage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Utilization) != 1 || !v.Utilization[0].Dialog.Visible {
		t.Errorf("expected open storage dialog, got %+v", v.Utilization)
	}
}

func TestRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RefreshResponse{Status: "refreshed", Source: "vsphere"})
	}))
	defer server.Close()

	resp, err := New(server.URL).Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Source != "vsphere" {
		t.Errorf("expected source vsphere, got %s", resp.Source)
	}
}

func TestNavigate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}
		var req search.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Place != search.PlaceHost {
			t.Errorf("expected place hosts, got %s", req.Place)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(NavigateResponse{Query: req.Query()})
	}))
	defer server.Close()

	query, err := New(server.URL).Navigate(context.Background(), search.Request{
		Place:   search.PlaceHost,
		Prefix:  search.PrefixHost,
		Filters: []search.Filter{{Name: search.FieldName, Values: []string{"host-02"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "Hosts: name = host-02" {
		t.Errorf("unexpected query %q", query)
	}
}
