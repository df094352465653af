// ABOUTME: Snapshot sources and the atomically swapped current snapshot
// ABOUTME: Loads snapshots from JSON files and holds the latest one

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Source produces a fresh snapshot on each call.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Decode reads and validates one JSON snapshot.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return &s, nil
}

// Load reads a snapshot from a JSON file.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// FileSource re-reads a JSON snapshot file on every fetch.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string {
	return "file"
}

func (f FileSource) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := Load(f.Path)
	if err != nil {
		return nil, err
	}
	if s.Source == "" {
		s.Source = f.Name()
	}
	return s, nil
}

// Store holds the current snapshot. Replacing it is atomic: readers see
// either the old or the new snapshot, never a mix.
type Store struct {
	mu         sync.RWMutex
	current    *Snapshot
	generation uint64
}

// Current returns the latest snapshot or ErrNoSnapshot.
func (s *Store) Current() (*Snapshot, error) {
	cur, _, err := s.CurrentGeneration()
	return cur, err
}

// CurrentGeneration returns the latest snapshot together with its
// generation. The generation increases with every Swap, so anything derived
// from a snapshot can be keyed by it.
func (s *Store) CurrentGeneration() (*Snapshot, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, s.generation, ErrNoSnapshot
	}
	return s.current, s.generation, nil
}

// Swap installs next and returns the previous snapshot, which may be nil.
func (s *Store) Swap(next *Snapshot) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = next
	s.generation++
	return prev
}
