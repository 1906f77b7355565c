package jsonfile

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
)

// Ensure SearchCache implements the interface.
var _ driven.SearchCache = (*SearchCache)(nil)

// DefaultCacheTTL is how long a cached search result stays valid.
const DefaultCacheTTL = 24 * time.Hour

// SearchCache stores one JSON file per cached search under cache/,
// named by the deterministic query hash.
type SearchCache struct {
	mu     sync.Mutex
	layout domain.Layout
	ttl    time.Duration
	now    func() time.Time
}

// NewSearchCache creates a cache over the given layout. A zero ttl
// selects DefaultCacheTTL.
func NewSearchCache(layout domain.Layout, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &SearchCache{layout: layout, ttl: ttl, now: time.Now}
}

// QueryHash derives the deterministic cache key for the query
// parameters.
func QueryHash(query string, topK int, dates domain.DateRange) string {
	data := fmt.Sprintf("%s:%d:%s:%s", query, topK, dates.Start, dates.End)
	sum := md5.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached record for the query parameters, or nil on a
// miss or an expired entry.
func (c *SearchCache) Get(_ context.Context, query string, topK int, dates domain.DateRange) (*domain.CacheRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.readLocked(QueryHash(query, topK, dates))
	if !ok || c.expired(rec.Timestamp) {
		return nil, nil
	}
	return rec, nil
}

// Put stores a record, preserving the result-set UUID of any previous
// entry for the same parameters so repeated identical queries keep a
// stable identity.
func (c *SearchCache) Put(_ context.Context, rec domain.CacheRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dates := domain.DateRange{Start: rec.StartDate, End: rec.EndDate}
	hash := QueryHash(rec.Query, rec.TopK, dates)
	rec.QueryHash = hash

	if rec.UUID == "" {
		if prev, ok := c.readLocked(hash); ok && prev.UUID != "" {
			rec.UUID = prev.UUID
		} else {
			rec.UUID = uuid.New().String()
		}
	}
	if rec.Timestamp == "" {
		rec.Timestamp = c.now().Format(time.RFC3339)
	}

	return writeJSONAtomic(c.filePath(hash), rec)
}

// Invalidate force-deletes the entry for the query parameters.
func (c *SearchCache) Invalidate(_ context.Context, query string, topK int, dates domain.DateRange) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.filePath(QueryHash(query, topK, dates)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Cleanup removes expired and unreadable cache files, returning the
// number deleted.
func (c *SearchCache) Cleanup(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(c.layout.CacheDir(), "*.json"))
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, file := range files {
		var rec domain.CacheRecord
		if err := readJSON(file, &rec); err != nil || c.expired(rec.Timestamp) {
			if os.Remove(file) == nil {
				cleaned++
			}
		}
	}
	return cleaned, nil
}

// Stats reports entry counts without deleting anything. Unreadable
// files count as expired.
func (c *SearchCache) Stats(_ context.Context) (domain.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(c.layout.CacheDir(), "*.json"))
	if err != nil {
		return domain.CacheStats{}, err
	}

	stats := domain.CacheStats{}
	for _, file := range files {
		stats.TotalEntries++
		var rec domain.CacheRecord
		if err := readJSON(file, &rec); err != nil || c.expired(rec.Timestamp) {
			stats.ExpiredEntries++
		}
	}
	stats.ValidEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats, nil
}

func (c *SearchCache) filePath(hash string) string {
	return filepath.Join(c.layout.CacheDir(), hash+".json")
}

func (c *SearchCache) readLocked(hash string) (*domain.CacheRecord, bool) {
	var rec domain.CacheRecord
	if err := readJSON(c.filePath(hash), &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

// expired reports whether a cache timestamp is older than the TTL.
// Unparseable timestamps are expired.
func (c *SearchCache) expired(timestamp string) bool {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		if t2, err2 := time.ParseInLocation("2006-01-02T15:04:05", timestamp, time.Local); err2 == nil {
			t = t2
		} else {
			return true
		}
	}
	return c.now().Sub(t) > c.ttl
}
