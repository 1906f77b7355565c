package jsonfile

import (
	"context"
	"os"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/logger"
)

// Ensure AssetStore implements the interface.
var _ driven.AssetStore = (*AssetStore)(nil)

// AssetStore persists the asset registry in file_registry.json,
// keyed by opaque identifier.
type AssetStore struct {
	mu     sync.Mutex
	layout domain.Layout
}

// NewAssetStore creates an asset store over the given layout.
func NewAssetStore(layout domain.Layout) *AssetStore {
	return &AssetStore{layout: layout}
}

// Load returns the normalized registry. Missing soft-delete fields on
// old entries are filled and persisted once; a corrupt file loads as
// empty.
func (s *AssetStore) Load(_ context.Context) (map[string]domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry, normalized := s.loadLocked()
	if normalized {
		if err := writeJSONAtomic(s.layout.RegistryFile(), registry); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Update applies fn to the current registry under the store lock and
// persists the result atomically when fn reports a change.
func (s *AssetStore) Update(_ context.Context, fn func(map[string]domain.Asset) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry, normalized := s.loadLocked()
	changed, err := fn(registry)
	if err != nil {
		return err
	}
	if !changed && !normalized {
		return nil
	}
	return writeJSONAtomic(s.layout.RegistryFile(), registry)
}

// Register mints a new identifier for the artifact. Multiple historical
// registrations for one path are expected across resets and harmless
// once the old entries are removed.
func (s *AssetStore) Register(ctx context.Context, p, recordID string, task domain.TaskType, originalName string) (string, error) {
	id := uuid.New().String()
	stored := s.layout.RecordPath(p)
	if originalName == "" {
		originalName = path.Base(stored)
	}

	asset := domain.Asset{
		FileUUID:     id,
		Path:         stored,
		RecordID:     recordID,
		TaskType:     task,
		OriginalName: originalName,
		CreatedAt:    time.Now().Format(time.RFC3339),
		Deleted:      false,
		DeletedAt:    nil,
	}

	err := s.Update(ctx, func(registry map[string]domain.Asset) (bool, error) {
		registry[id] = asset
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Resolve maps an identifier or legacy path to an absolute path plus
// owning metadata. For legacy paths the registry is reverse-searched so
// callers recover the canonical identifier when one exists.
func (s *AssetStore) Resolve(ctx context.Context, ref domain.Reference) (*domain.ResolvedFile, error) {
	if ref.IsZero() {
		return nil, domain.ErrInvalidInput
	}

	registry, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	if ref.IsIdentifier() {
		asset, ok := registry[ref.Value()]
		if !ok {
			return nil, domain.ErrNotFound
		}
		return &domain.ResolvedFile{
			AbsPath:    s.layout.ResolveRecordPath(asset.Path),
			RecordID:   asset.RecordID,
			TaskType:   asset.TaskType,
			Identifier: asset.FileUUID,
		}, nil
	}

	stored := s.layout.RecordPath(s.layout.ResolveRecordPath(ref.Value()))
	resolved := &domain.ResolvedFile{
		AbsPath:    s.layout.ResolveRecordPath(stored),
		Identifier: ref.Value(),
	}
	for id, asset := range registry {
		if s.layout.ResolveRecordPath(asset.Path) == resolved.AbsPath {
			resolved.RecordID = asset.RecordID
			resolved.TaskType = asset.TaskType
			resolved.Identifier = id
			break
		}
	}
	return resolved, nil
}

func (s *AssetStore) loadLocked() (map[string]domain.Asset, bool) {
	path := s.layout.RegistryFile()

	registry := make(map[string]domain.Asset)
	if err := readJSON(path, &registry); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("file registry %s unreadable, treating as empty: %v", path, err)
		}
		return make(map[string]domain.Asset), false
	}

	// Old registries predate the soft-delete fields.
	normalized := false
	for id, asset := range registry {
		if asset.FileUUID == "" {
			asset.FileUUID = id
			registry[id] = asset
			normalized = true
		}
	}
	return registry, normalized
}
