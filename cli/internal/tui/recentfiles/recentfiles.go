// ABOUTME: Remembers recently opened snapshot files for the file picker
// ABOUTME: Persists absolute paths with open times under the XDG config dir

package recentfiles

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// MaxRecentFiles is the maximum number of recent files to keep
const MaxRecentFiles = 5

const appDir = "virt-dashboard"

// Entry is one remembered snapshot file
type Entry struct {
	Path     string    `json:"path"`
	OpenedAt time.Time `json:"opened_at"`
}

// RecentFiles manages the list of recently used snapshot files
type RecentFiles struct {
	configDir string
	entries   []Entry
	now       func() time.Time
}

type recentData struct {
	Files []Entry `json:"files"`
}

// New creates a RecentFiles manager storing its list in configDir
func New(configDir string) *RecentFiles {
	return &RecentFiles{configDir: configDir, now: time.Now}
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/virt-dashboard, falling back to
// ~/.config/virt-dashboard. It returns "" when no home directory is known.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDir)
}

func (rf *RecentFiles) configFile() string {
	return filepath.Join(rf.configDir, "recent.json")
}

// Load reads the list from disk, dropping files that no longer exist. A
// missing or corrupt list loads as empty.
func (rf *RecentFiles) Load() ([]Entry, error) {
	rf.entries = []Entry{}

	data, err := os.ReadFile(rf.configFile())
	if errors.Is(err, fs.ErrNotExist) {
		return rf.entries, nil
	}
	if err != nil {
		return nil, err
	}

	var recent recentData
	if err := json.Unmarshal(data, &recent); err != nil {
		return rf.entries, nil
	}

	for _, e := range recent.Files {
		if _, err := os.Stat(e.Path); err == nil {
			rf.entries = append(rf.entries, e)
		}
	}
	return rf.entries, nil
}

// Save writes entries to disk, keeping at most MaxRecentFiles
func (rf *RecentFiles) Save(entries []Entry) error {
	if err := os.MkdirAll(rf.configDir, 0o755); err != nil {
		return err
	}
	if len(entries) > MaxRecentFiles {
		entries = entries[:MaxRecentFiles]
	}
	rf.entries = entries

	data, err := json.MarshalIndent(recentData{Files: entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(rf.configFile(), data, 0o644)
}

// Add records path as the most recently opened file. Relative paths are
// stored absolute so the same file is never listed twice.
func (rf *RecentFiles) Add(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if rf.entries == nil {
		if _, err := rf.Load(); err != nil {
			rf.entries = []Entry{}
		}
	}

	next := make([]Entry, 0, len(rf.entries)+1)
	next = append(next, Entry{Path: path, OpenedAt: rf.now().UTC()})
	for _, e := range rf.entries {
		if e.Path != path {
			next = append(next, e)
		}
	}
	return rf.Save(next)
}

// Paths returns the remembered paths, most recent first
func (rf *RecentFiles) Paths() []string {
	if rf.entries == nil {
		if _, err := rf.Load(); err != nil {
			return nil
		}
	}
	paths := make([]string, len(rf.entries))
	for i, e := range rf.entries {
		paths[i] = e.Path
	}
	return paths
}
