package driving

import (
	"context"

	"github.com/recordroute/recordroute/internal/core/domain"
)

// SearchService answers similarity and keyword queries over the
// embedding index, consulting the result cache before recomputation.
type SearchService interface {
	// Search returns the topK most similar documents for the query,
	// optionally bounded by an inclusive date range. A provider outage
	// is reported as domain.ErrProviderUnavailable, never as an empty
	// result set.
	Search(ctx context.Context, query string, topK int, dates domain.DateRange) (*domain.SearchResultSet, error)

	// FindSimilar uses the referenced document's own text as the
	// query and excludes the document itself from the results.
	FindSimilar(ctx context.Context, ref domain.Reference, topK int) ([]domain.SearchHit, error)

	// KeywordMatches scans registered text files for case-insensitive
	// occurrences of the query, sorted by count then recency.
	KeywordMatches(ctx context.Context, query string, limit int) ([]domain.KeywordMatch, error)

	// Invalidate force-deletes one cached search result.
	Invalidate(ctx context.Context, query string, topK int, dates domain.DateRange) (bool, error)

	// CacheStats reports result cache entry counts.
	CacheStats(ctx context.Context) (domain.CacheStats, error)

	// CacheCleanup removes expired cache entries and returns how many
	// were deleted.
	CacheCleanup(ctx context.Context) (int, error)
}

// Indexer maintains the embedding index incrementally.
type Indexer interface {
	// ScanDir embeds every new or changed summary file under dir.
	// Per-file failures are reported in the result, not as an error.
	ScanDir(ctx context.Context, dir string) (*IndexReport, error)

	// IndexFile embeds a single file if its content hash changed.
	// Returns false when the stored entry was already up to date.
	IndexFile(ctx context.Context, path string) (bool, error)
}

// IndexReport summarises one incremental indexing run.
type IndexReport struct {
	// Scanned is the number of candidate files found.
	Scanned int

	// Indexed is the number of files embedded this run.
	Indexed int

	// Skipped is the number of files whose hash was unchanged.
	Skipped int

	// Failures maps file paths to the error that skipped them.
	Failures map[string]string
}
