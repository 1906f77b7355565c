package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/logger"
	"github.com/recordroute/recordroute/internal/vector"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore persists the embedding index in vector_store/index.json.
// The sibling directory holds one binary vector file per entry.
type IndexStore struct {
	mu     sync.Mutex
	layout domain.Layout
}

// NewIndexStore creates an index store over the given layout.
func NewIndexStore(layout domain.Layout) *IndexStore {
	return &IndexStore{layout: layout}
}

// Load returns the index with every key folded to canonical form.
// When two raw keys normalize to one canonical key, the entry with the
// later timestamp wins. A changed map is persisted once, in a single
// batched rewrite. A corrupt file loads as empty.
func (s *IndexStore) Load(_ context.Context) (map[string]domain.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, changed := s.loadLocked()
	if changed {
		if err := writeJSONAtomic(s.layout.IndexFile(), index); err != nil {
			return nil, err
		}
	}
	return index, nil
}

// Update applies fn to the current index under the store lock and
// persists the result atomically when fn reports a change.
func (s *IndexStore) Update(_ context.Context, fn func(map[string]domain.IndexEntry) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, normalized := s.loadLocked()
	changed, err := fn(index)
	if err != nil {
		return err
	}
	if !changed && !normalized {
		return nil
	}
	return writeJSONAtomic(s.layout.IndexFile(), index)
}

// KeyFor normalizes a path to its canonical index key.
func (s *IndexStore) KeyFor(path string) string {
	return s.layout.KeyFor(path)
}

// ReadVector loads the named vector from the live vector directory.
func (s *IndexStore) ReadVector(name string) ([]float32, error) {
	return vector.ReadFile(filepath.Join(s.layout.VectorDir(), name))
}

// WriteVector stores a vector under the given name, creating the
// vector directory on first use.
func (s *IndexStore) WriteVector(name string, vec []float32) error {
	dir := s.layout.VectorDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return vector.WriteFile(filepath.Join(dir, name), vec)
}

func (s *IndexStore) loadLocked() (map[string]domain.IndexEntry, bool) {
	path := s.layout.IndexFile()

	raw := make(map[string]domain.IndexEntry)
	if err := readJSON(path, &raw); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("vector index %s unreadable, treating as empty: %v", path, err)
		}
		return make(map[string]domain.IndexEntry), false
	}

	index := make(map[string]domain.IndexEntry, len(raw))
	changed := false
	for key, entry := range raw {
		canonical := s.layout.NormalizeKey(key)

		if entry.Base == "" {
			entry.Base = s.layout.AreaFor(canonical)
			changed = true
		}

		if existing, dup := index[canonical]; dup {
			// Later timestamp wins. ISO-8601 compares lexically.
			// When either side lacks a timestamp the newer raw entry
			// is taken.
			if existing.Timestamp == "" || entry.Timestamp == "" || entry.Timestamp > existing.Timestamp {
				index[canonical] = entry
			}
			changed = true
			continue
		}

		if canonical != key {
			changed = true
		}
		index[canonical] = entry
	}
	return index, changed
}
