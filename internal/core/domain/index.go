package domain

// StorageArea tags which logical root an indexed file lives under.
// It disambiguates resolution of relative canonical keys.
type StorageArea string

// Known storage areas.
const (
	// AreaOutputs is the per-record derived-output tree.
	AreaOutputs StorageArea = "outputs"

	// AreaBase is the data root itself (uploads, vector store, deleted
	// area).
	AreaBase StorageArea = "db"
)

// IndexEntry is one embedded document in the vector index, keyed by
// canonical document key.
type IndexEntry struct {
	// SHA256 is the content hash of the embedded text at index time.
	SHA256 string `json:"sha256"`

	// Vector is the filename of the stored vector, relative to the
	// vector directory (or the deleted vector directory once
	// soft-deleted).
	Vector string `json:"vector"`

	// Timestamp is the source file's modification time, ISO-8601.
	Timestamp string `json:"timestamp"`

	// Base is the storage area the document key resolves under.
	Base StorageArea `json:"base,omitempty"`

	// Deleted marks the entry soft-deleted with its owning record.
	Deleted bool `json:"deleted,omitempty"`

	// DeletedAt is the soft-delete time, empty while live.
	DeletedAt string `json:"deleted_at,omitempty"`

	// DeletedPath is where the document moved to, set only when
	// soft-deleted.
	DeletedPath string `json:"deleted_path,omitempty"`

	// VectorDeletedPath is where the vector file moved to, set only
	// when soft-deleted.
	VectorDeletedPath string `json:"vector_deleted_path,omitempty"`
}
