package domain

import "time"

// DateRange bounds a search by document timestamp. Both bounds are
// inclusive; an empty bound is unbounded. Values are ISO-8601 dates or
// datetimes.
type DateRange struct {
	Start string `json:"start_date,omitempty"`
	End   string `json:"end_date,omitempty"`
}

// IsZero reports whether no bound is set.
func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// Contains reports whether the given ISO-8601 timestamp falls within
// the range. Unparseable or missing timestamps are excluded whenever
// any bound is set.
func (r DateRange) Contains(timestamp string) bool {
	if r.IsZero() {
		return true
	}
	ts, ok := parseFlexibleTime(timestamp)
	if !ok {
		return false
	}
	if r.Start != "" {
		if start, ok := parseFlexibleTime(r.Start); ok && ts.Before(start) {
			return false
		}
	}
	if r.End != "" {
		if end, ok := parseFlexibleTime(r.End); ok {
			// A bare date means the whole day is included.
			if len(r.End) == len("2006-01-02") {
				end = end.Add(24*time.Hour - time.Nanosecond)
			}
			if ts.After(end) {
				return false
			}
		}
	}
	return true
}

func parseFlexibleTime(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortKey converts an ISO-8601 timestamp to a numeric recency key.
// Unparseable timestamps sort last.
func SortKey(timestamp string) float64 {
	t, ok := parseFlexibleTime(timestamp)
	if !ok {
		return -1e18
	}
	return float64(t.UnixNano())
}

// SearchHit is one similarity result.
type SearchHit struct {
	// Key is the canonical document key.
	Key string `json:"file"`

	// Score is the cosine similarity against the query vector.
	Score float64 `json:"score"`
}

// SearchResultSet is the outcome of one similarity search. The UUID is
// stable across repeated identical queries so downstream consumers can
// reference "this search".
type SearchResultSet struct {
	UUID string      `json:"uuid"`
	Hits []SearchHit `json:"results"`
}

// CacheRecord is one persisted search result, keyed by a deterministic
// hash of the query parameters.
type CacheRecord struct {
	UUID      string      `json:"uuid"`
	Query     string      `json:"query"`
	TopK      int         `json:"top_k"`
	Timestamp string      `json:"timestamp"`
	QueryHash string      `json:"query_hash"`
	Results   []SearchHit `json:"results"`
	StartDate string      `json:"start_date,omitempty"`
	EndDate   string      `json:"end_date,omitempty"`
}

// CacheStats summarises the on-disk result cache.
type CacheStats struct {
	TotalEntries   int `json:"total_entries"`
	ExpiredEntries int `json:"expired_entries"`
	ValidEntries   int `json:"valid_entries"`
}

// KeywordMatch is one substring-scan result over registered text files.
type KeywordMatch struct {
	// FileUUID is the matched asset's opaque identifier.
	FileUUID string `json:"file_uuid"`

	// Key is the canonical document key.
	Key string `json:"file"`

	// DisplayName is the user-facing filename.
	DisplayName string `json:"display_name"`

	// Count is the number of occurrences of the query.
	Count int `json:"count"`

	// UploadedAt is the owning record's upload time.
	UploadedAt string `json:"uploaded_at,omitempty"`

	// Link is the download reference for the matched file.
	Link string `json:"link"`
}
