// ABOUTME: Tests for the status command
// ABOUTME: Verifies utilization output formatting and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/threshold"
	"github.com/markalston/virt-dashboard/internal/view"
)

// sampleDashboard builds the sample snapshot's dashboard with every dialog closed.
func sampleDashboard(t *testing.T) view.DashboardView {
	t.Helper()
	s, err := snapshot.Load(samplePath)
	if err != nil {
		t.Fatalf("loading sample: %v", err)
	}
	d, err := view.NewGlobalDashboard(intl.New("en"))
	if err != nil {
		t.Fatalf("building dashboard: %v", err)
	}
	return d.Build(s, view.DashboardState{})
}

func TestFormatStatusHuman(t *testing.T) {
	v := sampleDashboard(t)
	output := formatStatusHuman(newStatusReport("sample.json", &v))

	checks := []string{
		"Source:       sample.json",
		"Last updated: 2024-05-01T09:05:00Z",
		"CPU 42% used [normal]",
		"Storage 35% used [normal]",
		"Hosts:",
		"Virtual Machines:      42",
	}
	for _, check := range checks {
		if !strings.Contains(output, check) {
			t.Errorf("expected output to contain %q, got:\n%s", check, output)
		}
	}
	if strings.Contains(output, "Gluster Volumes") {
		t.Error("expected no volume card when there are no volumes")
	}
}

func TestFormatStatusJSON(t *testing.T) {
	v := sampleDashboard(t)
	output := formatStatusJSON(newStatusReport("sample.json", &v))

	var parsed statusReport
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed.Utilization) != 3 {
		t.Fatalf("expected 3 utilization cards, got %d", len(parsed.Utilization))
	}
	if parsed.Utilization[0].Resource != view.ResourceCPU {
		t.Errorf("expected cpu first, got %s", parsed.Utilization[0].Resource)
	}
	if parsed.Utilization[0].Severity != threshold.Normal {
		t.Errorf("expected normal severity, got %s", parsed.Utilization[0].Severity)
	}
}

func TestStatusCommand_FromSnapshotFile(t *testing.T) {
	setFlag(t, "snapshot", samplePath)

	var buf bytes.Buffer
	exitCode := runStatus(context.Background(), &buf)

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "CPU 42% used [normal]") {
		t.Errorf("expected CPU line in output, got:\n%s", buf.String())
	}
}

func TestStatusCommand_FromAPI(t *testing.T) {
	v := sampleDashboard(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/dashboard" {
			t.Errorf("expected path /api/v1/dashboard, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}))
	defer server.Close()
	setFlag(t, "api-url", server.URL)
	setFlag(t, "json", "true")

	var buf bytes.Buffer
	exitCode := runStatus(context.Background(), &buf)

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	var parsed statusReport
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Source != server.URL {
		t.Errorf("expected source %s, got %s", server.URL, parsed.Source)
	}
}

func TestStatusCommand_ConnectionError(t *testing.T) {
	setFlag(t, "api-url", "http://localhost:99999")

	var buf bytes.Buffer
	exitCode := runStatus(context.Background(), &buf)

	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Error:") {
		t.Error("expected error message in output")
	}
}

func TestStatusCommand_InvalidSnapshot(t *testing.T) {
	path := t.TempDir() + "/broken.json"
	if err := os.WriteFile(path, []byte(`{"inventory":`), 0o600); err != nil {
		t.Fatal(err)
	}
	setFlag(t, "snapshot", path)

	var buf bytes.Buffer
	if exitCode := runStatus(context.Background(), &buf); exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
}
