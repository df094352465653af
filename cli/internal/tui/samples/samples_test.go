// ABOUTME: Tests for sample snapshot discovery
// ABOUTME: Validates finding JSON files in the samples directory

package samples

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func write(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "small-lab.json")
	write(t, dir, "datacenter.JSON")
	write(t, dir, "readme.txt")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := []SampleFile{
		{Name: "datacenter", Path: filepath.Join(dir, "datacenter.JSON")},
		{Name: "small-lab", Path: filepath.Join(dir, "small-lab.json")},
	}
	if !slices.Equal(files, want) {
		t.Errorf("Discover() = %v, want %v", files, want)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	files, err := Discover("/nonexistent/path")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Expected no files, got %v", files)
	}
}

func TestDiscoverRepoSamples(t *testing.T) {
	t.Setenv(EnvSamplesPath, "")
	files, err := Discover(FindSamplesDir("../../../.."))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	found := slices.ContainsFunc(files, func(f SampleFile) bool { return f.Name == "sample" })
	if !found {
		t.Errorf("Expected the repo sample snapshot, got %v", files)
	}
}

func TestFindSamplesDir(t *testing.T) {
	t.Setenv(EnvSamplesPath, "")
	base := t.TempDir()
	dir := filepath.Join(base, "internal", "snapshot", "testdata")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if got := FindSamplesDir(base); got != dir {
		t.Errorf("FindSamplesDir() = %q, want %q", got, dir)
	}
	if got := FindSamplesDir(t.TempDir()); got != "" {
		t.Errorf("Expected no samples dir, got %q", got)
	}
}

func TestFindSamplesDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvSamplesPath, dir)

	if got := FindSamplesDir("/some/other/path"); got != dir {
		t.Errorf("FindSamplesDir() = %q, want %q", got, dir)
	}
}

func TestFindSamplesDirIgnoresMissingEnvPath(t *testing.T) {
	t.Setenv(EnvSamplesPath, "/nonexistent/samples")

	if got := FindSamplesDir(t.TempDir()); got != "" {
		t.Errorf("Expected no samples dir, got %q", got)
	}
}
