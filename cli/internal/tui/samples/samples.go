// ABOUTME: Discovers bundled sample snapshot files
// ABOUTME: Looks in VIRT_DASHBOARD_SAMPLES_PATH or the repo's snapshot testdata

package samples

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// EnvSamplesPath overrides the samples directory
const EnvSamplesPath = "VIRT_DASHBOARD_SAMPLES_PATH"

// SampleFile represents a discovered sample snapshot
type SampleFile struct {
	Name string // display name, the file name without .json
	Path string
}

// Discover lists the JSON files in dir sorted by name. A missing dir has no samples.
func Discover(dir string) ([]SampleFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []SampleFile{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := []SampleFile{}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || !strings.EqualFold(ext, ".json") {
			continue
		}
		files = append(files, SampleFile{
			Name: strings.TrimSuffix(entry.Name(), ext),
			Path: filepath.Join(dir, entry.Name()),
		})
	}
	slices.SortFunc(files, func(a, b SampleFile) int { return strings.Compare(a.Name, b.Name) })
	return files, nil
}

// FindSamplesDir locates the samples directory, checking in order:
//  1. the VIRT_DASHBOARD_SAMPLES_PATH environment variable
//  2. internal/snapshot/testdata under basePath
func FindSamplesDir(basePath string) string {
	if envPath := os.Getenv(EnvSamplesPath); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	dir := filepath.Join(basePath, "internal", "snapshot", "testdata")
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	return ""
}
