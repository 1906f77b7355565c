package driven

import (
	"context"

	"github.com/recordroute/recordroute/internal/core/domain"
)

// Every mutating store operation re-reads the on-disk state under the
// store's exclusive lock, applies the change, and writes back atomically
// before releasing. The Update closures below are that read-modify-write
// cycle: they receive the freshly loaded state and report whether it
// changed. Closures must not block on network calls.

// HistoryStore persists the ordered list of upload records.
// Records are newest-first and soft-deleted, never removed.
type HistoryStore interface {
	// Load returns the normalized history. A corrupt file loads as an
	// empty history with a warning.
	Load(ctx context.Context) ([]domain.UploadRecord, error)

	// Update applies fn to the current history under the store lock.
	// fn returns the new history and whether it must be persisted.
	Update(ctx context.Context, fn func(history []domain.UploadRecord) ([]domain.UploadRecord, bool, error)) error
}

// AssetStore persists the registry mapping opaque identifier to asset.
type AssetStore interface {
	// Load returns the normalized registry. A corrupt file loads as an
	// empty registry with a warning.
	Load(ctx context.Context) (map[string]domain.Asset, error)

	// Update applies fn to the current registry under the store lock.
	Update(ctx context.Context, fn func(registry map[string]domain.Asset) (bool, error)) error

	// Register mints a new opaque identifier for the given artifact.
	// It never deduplicates by path.
	Register(ctx context.Context, path, recordID string, task domain.TaskType, originalName string) (string, error)

	// Resolve maps a reference (identifier or legacy path) to an
	// absolute path plus owning metadata. Legacy paths are
	// reverse-looked-up to recover the canonical identifier when a
	// matching entry exists. Returns domain.ErrNotFound for an unknown
	// identifier.
	Resolve(ctx context.Context, ref domain.Reference) (*domain.ResolvedFile, error)
}

// IndexStore persists the embedding index and its vector files.
type IndexStore interface {
	// Load returns the normalized index keyed by canonical document
	// key. Normalization merges duplicate keys (later timestamp wins)
	// and persists the merged map once. A corrupt file loads as an
	// empty index with a warning.
	Load(ctx context.Context) (map[string]domain.IndexEntry, error)

	// Update applies fn to the current index under the store lock.
	Update(ctx context.Context, fn func(index map[string]domain.IndexEntry) (bool, error)) error

	// KeyFor normalizes a path to its canonical index key.
	KeyFor(path string) string

	// ReadVector loads the named vector from the live vector directory.
	ReadVector(name string) ([]float32, error)

	// WriteVector stores a vector under the given name.
	WriteVector(name string, vec []float32) error
}

// SearchCache is the TTL-based persisted cache of search results,
// keyed by (query, topK, dateRange).
type SearchCache interface {
	// Get returns the cached record for the query parameters, or nil
	// on a miss or an expired entry.
	Get(ctx context.Context, query string, topK int, dates domain.DateRange) (*domain.CacheRecord, error)

	// Put stores a record, replacing any previous entry for the same
	// parameters.
	Put(ctx context.Context, rec domain.CacheRecord) error

	// Invalidate force-deletes the entry for the query parameters.
	// Returns false when no entry existed.
	Invalidate(ctx context.Context, query string, topK int, dates domain.DateRange) (bool, error)

	// Cleanup removes expired and unreadable entries, returning the
	// number deleted.
	Cleanup(ctx context.Context) (int, error)

	// Stats reports entry counts without deleting anything.
	Stats(ctx context.Context) (domain.CacheStats, error)
}
