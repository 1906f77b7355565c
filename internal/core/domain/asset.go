package domain

// Asset is one registry entry: a durable artifact produced by a task,
// keyed by an opaque identifier so download links survive file moves.
type Asset struct {
	// FileUUID is the opaque identifier, also the registry map key.
	FileUUID string `json:"file_uuid"`

	// Path is the canonical key of the backing file. Rewritten to the
	// deleted-area mirror when the owning record is soft-deleted.
	Path string `json:"file_path"`

	// RecordID is the owning upload record.
	RecordID string `json:"record_id"`

	// TaskType is the task that produced this artifact.
	TaskType TaskType `json:"task_type"`

	// OriginalName is the user-facing filename.
	OriginalName string `json:"original_filename"`

	// CreatedAt is the registration time, ISO-8601.
	CreatedAt string `json:"created_at"`

	// Deleted marks the asset soft-deleted together with its record.
	Deleted bool `json:"deleted"`

	// DeletedAt is the soft-delete time, nil while the asset is live.
	DeletedAt *string `json:"deleted_at"`
}

// ResolvedFile is the result of resolving a Reference against the
// asset registry.
type ResolvedFile struct {
	// AbsPath is the absolute filesystem path of the asset.
	AbsPath string

	// RecordID is the owning record, empty for unregistered legacy
	// paths.
	RecordID string

	// TaskType is the producing task, empty for unregistered legacy
	// paths.
	TaskType TaskType

	// Identifier is the canonical identifier: the registry UUID when
	// one matched, otherwise the normalized legacy path.
	Identifier string
}
