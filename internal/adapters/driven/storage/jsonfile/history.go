package jsonfile

import (
	"context"
	"os"
	"sync"

	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/logger"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore persists upload records in upload_history.json,
// newest first.
type HistoryStore struct {
	mu     sync.Mutex
	layout domain.Layout
}

// NewHistoryStore creates a history store over the given layout.
func NewHistoryStore(layout domain.Layout) *HistoryStore {
	return &HistoryStore{layout: layout}
}

// Load returns the normalized history. Schema gaps in old records are
// filled and persisted once; a corrupt file loads as empty.
func (s *HistoryStore) Load(_ context.Context) ([]domain.UploadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, normalized, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	if normalized {
		if err := writeJSONAtomic(s.layout.HistoryFile(), history); err != nil {
			return nil, err
		}
	}
	return history, nil
}

// Update applies fn to the current history under the store lock and
// persists the result atomically when fn reports a change.
func (s *HistoryStore) Update(_ context.Context, fn func([]domain.UploadRecord) ([]domain.UploadRecord, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, normalized, err := s.loadLocked()
	if err != nil {
		return err
	}

	updated, changed, err := fn(history)
	if err != nil {
		return err
	}
	if !changed && !normalized {
		return nil
	}
	if !changed {
		updated = history
	}
	return writeJSONAtomic(s.layout.HistoryFile(), updated)
}

// loadLocked reads and normalizes the history file. The second return
// reports whether normalization changed anything (the caller decides
// when to persist).
func (s *HistoryStore) loadLocked() ([]domain.UploadRecord, bool, error) {
	path := s.layout.HistoryFile()

	var history []domain.UploadRecord
	if err := readJSON(path, &history); err != nil {
		if os.IsNotExist(err) {
			return []domain.UploadRecord{}, false, nil
		}
		logger.Warn("upload history %s unreadable, treating as empty: %v", path, err)
		return []domain.UploadRecord{}, false, nil
	}

	normalized := false
	for i := range history {
		if domain.NormalizeRecord(&history[i]) {
			normalized = true
		}
	}
	return history, normalized, nil
}
