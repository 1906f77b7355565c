package services

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/core/ports/driving"
	"github.com/recordroute/recordroute/internal/logger"
	"github.com/recordroute/recordroute/internal/vector"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultTopK is the result count when the caller does not set one.
const DefaultTopK = 5

// DefaultKeywordLimit bounds keyword scan results.
const DefaultKeywordLimit = 5

// textExtensions are the registered file types the keyword scan reads.
var textExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".text":     true,
}

// SearchService answers similarity and keyword queries, consulting the
// persisted result cache before touching the embedding engine.
type SearchService struct {
	embedder driven.EmbeddingService
	index    driven.IndexStore
	cache    driven.SearchCache
	assets   driven.AssetStore
	history  driven.HistoryStore
	layout   domain.Layout
}

// NewSearch creates the search service.
func NewSearch(
	embedder driven.EmbeddingService,
	index driven.IndexStore,
	cache driven.SearchCache,
	assets driven.AssetStore,
	history driven.HistoryStore,
	layout domain.Layout,
) *SearchService {
	return &SearchService{
		embedder: embedder,
		index:    index,
		cache:    cache,
		assets:   assets,
		history:  history,
		layout:   layout,
	}
}

// Search returns the topK most similar documents for the query. A cache
// hit skips embedding entirely; a miss embeds, ranks every live index
// entry, and persists the result under a stable result-set identity.
func (s *SearchService) Search(ctx context.Context, query string, topK int, dates domain.DateRange) (*domain.SearchResultSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	if cached, err := s.cache.Get(ctx, query, topK, dates); err == nil && cached != nil {
		logger.Debug("search cache hit for %q", query)
		return &domain.SearchResultSet{UUID: cached.UUID, Hits: cached.Results}, nil
	}

	if s.embedder == nil {
		return nil, fmt.Errorf("no embedding engine configured: %w", domain.ErrProviderUnavailable)
	}
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	index, err := s.index.Load(ctx)
	if err != nil {
		return nil, err
	}

	hits := s.rank(queryVec, index, dates, "")
	if len(hits) > topK {
		hits = hits[:topK]
	}

	rec := domain.CacheRecord{
		Query:     query,
		TopK:      topK,
		Results:   hits,
		StartDate: dates.Start,
		EndDate:   dates.End,
	}
	if err := s.cache.Put(ctx, rec); err != nil {
		logger.Warn("cache search result: %v", err)
		return &domain.SearchResultSet{UUID: uuid.New().String(), Hits: hits}, nil
	}

	// Re-read to pick up the stable result-set identity the cache
	// preserved from any earlier entry for the same parameters.
	stored, err := s.cache.Get(ctx, query, topK, dates)
	if err != nil || stored == nil {
		return &domain.SearchResultSet{UUID: uuid.New().String(), Hits: hits}, nil
	}
	return &domain.SearchResultSet{UUID: stored.UUID, Hits: stored.Results}, nil
}

// FindSimilar ranks documents against the referenced document itself.
// The stored vector is used when current; otherwise the file content is
// re-embedded. The document never appears in its own results.
func (s *SearchService) FindSimilar(ctx context.Context, ref domain.Reference, topK int) ([]domain.SearchHit, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("empty reference: %w", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	resolved, err := s.assets.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	index, err := s.index.Load(ctx)
	if err != nil {
		return nil, err
	}
	key := s.index.KeyFor(resolved.AbsPath)

	var queryVec []float32
	if entry, ok := index[key]; ok && !entry.Deleted {
		if v, err := s.index.ReadVector(entry.Vector); err == nil {
			queryVec = v
		}
	}
	if queryVec == nil {
		if s.embedder == nil {
			return nil, fmt.Errorf("no embedding engine configured: %w", domain.ErrProviderUnavailable)
		}
		data, err := os.ReadFile(resolved.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", resolved.AbsPath, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, domain.ErrEmptyText
		}
		queryVec, err = s.embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
	}

	hits := s.rank(queryVec, index, domain.DateRange{}, key)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// KeywordMatches scans registered text files for case-insensitive
// occurrences of the query, sorted by count then upload recency.
func (s *SearchService) KeywordMatches(ctx context.Context, query string, limit int) ([]domain.KeywordMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultKeywordLimit
	}

	registry, err := s.assets.Load(ctx)
	if err != nil {
		return nil, err
	}

	uploadedAt := map[string]string{}
	if history, err := s.history.Load(ctx); err == nil {
		for _, rec := range history {
			uploadedAt[rec.ID] = rec.Timestamp
		}
	}

	needle := strings.ToLower(query)

	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var matches []domain.KeywordMatch
	for _, id := range ids {
		asset := registry[id]
		if asset.Deleted || !textExtensions[strings.ToLower(path.Ext(asset.Path))] {
			continue
		}
		abs := s.layout.ResolveRecordPath(asset.Path)
		data, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		count := strings.Count(strings.ToLower(string(data)), needle)
		if count == 0 {
			continue
		}
		matches = append(matches, domain.KeywordMatch{
			FileUUID:    asset.FileUUID,
			Key:         s.layout.NormalizeKey(asset.Path),
			DisplayName: asset.OriginalName,
			Count:       count,
			UploadedAt:  uploadedAt[asset.RecordID],
			Link:        "/download/" + asset.FileUUID,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Count != matches[j].Count {
			return matches[i].Count > matches[j].Count
		}
		return domain.SortKey(matches[i].UploadedAt) > domain.SortKey(matches[j].UploadedAt)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Invalidate force-deletes one cached search result.
func (s *SearchService) Invalidate(ctx context.Context, query string, topK int, dates domain.DateRange) (bool, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return s.cache.Invalidate(ctx, strings.TrimSpace(query), topK, dates)
}

// CacheStats reports result cache entry counts.
func (s *SearchService) CacheStats(ctx context.Context) (domain.CacheStats, error) {
	return s.cache.Stats(ctx)
}

// CacheCleanup removes expired cache entries.
func (s *SearchService) CacheCleanup(ctx context.Context) (int, error) {
	return s.cache.Cleanup(ctx)
}

// rank scores every live, date-admissible index entry against queryVec,
// highest similarity first. Keys are iterated in sorted order so equal
// scores keep a deterministic order. Unreadable or mismatched vectors
// are skipped with a warning rather than failing the whole search.
func (s *SearchService) rank(queryVec []float32, index map[string]domain.IndexEntry, dates domain.DateRange, exclude string) []domain.SearchHit {
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hits := make([]domain.SearchHit, 0, len(keys))
	for _, key := range keys {
		entry := index[key]
		if entry.Deleted || key == exclude {
			continue
		}
		if !dates.Contains(entry.Timestamp) {
			continue
		}
		docVec, err := s.index.ReadVector(entry.Vector)
		if err != nil {
			logger.Warn("read vector %s: %v", entry.Vector, err)
			continue
		}
		score, err := vector.CosineSimilarity(queryVec, docVec)
		if err != nil {
			logger.Warn("score %s: %v", key, err)
			continue
		}
		hits = append(hits, domain.SearchHit{Key: key, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}
