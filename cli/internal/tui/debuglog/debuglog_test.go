// ABOUTME: Tests for the TUI debug logger
// ABOUTME: Verifies file creation, record content and the disabled mode

package debuglog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesRecords(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "virt-dashboard")
	if err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(Close)

	Log("Snapshot loaded", "source", "sample")
	Warn("Slow refresh", "seconds", 12)
	Error("Navigate", errors.New("boom"))
	Error("ignored", nil)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)

	for _, want := range []string{`msg="Snapshot loaded"`, "source=sample", "level=WARN", "error=boom", "component=tui"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "ignored") {
		t.Error("Expected nil errors to be skipped")
	}
}

func TestInitEmptyDirDisables(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(Close)

	Log("dropped")
	if Logger() == nil {
		t.Error("Expected a discarding logger when disabled")
	}
}

func TestCloseStopsWriting(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Close()

	Log("after close")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty log, got %q", data)
	}
}
