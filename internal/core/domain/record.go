package domain

// TaskType identifies one derivation step in the upload pipeline.
type TaskType string

// The three task types tracked per upload record.
const (
	TaskTranscript TaskType = "transcript"
	TaskEmbedding  TaskType = "embedding"
	TaskSummary    TaskType = "summary"
)

// AllTasks returns every known task type in pipeline order.
func AllTasks() []TaskType {
	return []TaskType{TaskTranscript, TaskEmbedding, TaskSummary}
}

// ValidTask reports whether t names a known task type.
func ValidTask(t TaskType) bool {
	switch t {
	case TaskTranscript, TaskEmbedding, TaskSummary:
		return true
	}
	return false
}

// UploadRecord tracks one uploaded source file and the completion state
// of every derived task. Records are soft-deleted, never removed.
type UploadRecord struct {
	// ID is the opaque record identifier.
	ID string `json:"id"`

	// Timestamp is the upload time, ISO-8601.
	Timestamp string `json:"timestamp"`

	// Filename is the user-facing name of the uploaded file.
	Filename string `json:"filename"`

	// SourceType classifies the upload (audio, document).
	SourceType string `json:"source_type"`

	// Duration is the audio length when known, empty otherwise.
	Duration string `json:"duration,omitempty"`

	// Path is the canonical key of the original upload.
	Path string `json:"path"`

	// Folder is the per-upload grouping key shared by all derived
	// artifacts of this record.
	Folder string `json:"folder"`

	// CompletedTasks maps every task type to its completion flag.
	// All keys are always present.
	CompletedTasks map[TaskType]bool `json:"completed_tasks"`

	// DownloadRefs maps a completed task to its download reference,
	// either "/download/<uuid>" or a legacy raw path.
	DownloadRefs map[TaskType]string `json:"download_refs"`

	// TitleSummary is the one-line summary shown in listings.
	TitleSummary string `json:"title_summary"`

	// Tags are user-assigned labels matched by the history filter
	// alongside the filename.
	Tags []string `json:"tags"`

	// ContentHash is the SHA-256 of the uploaded bytes, used for
	// upload-time dedup.
	ContentHash string `json:"content_hash,omitempty"`

	// Deleted marks the record soft-deleted.
	Deleted bool `json:"deleted"`

	// DeletedAt is the soft-delete time, nil while the record is live.
	DeletedAt *string `json:"deleted_at"`

	// DeletedAssets records where moved assets now live, for audit.
	DeletedAssets *DeletedAssets `json:"deleted_assets,omitempty"`
}

// DeletedAssets is the audit manifest written when a record is
// soft-deleted. Paths are stored as canonical keys under the deleted
// area.
type DeletedAssets struct {
	// Uploads is the new location of the record's upload folder.
	Uploads string `json:"uploads,omitempty"`

	// Outputs is the new location of the record's output folder.
	Outputs string `json:"outputs,omitempty"`

	// Files maps each task type to the moved registry entry paths.
	Files map[TaskType][]string `json:"files,omitempty"`

	// Vectors lists the moved vector files.
	Vectors []string `json:"vectors,omitempty"`
}

// NormalizeRecord fills missing maps and soft-delete fields on a record
// loaded from disk. It returns true if anything changed.
func NormalizeRecord(r *UploadRecord) bool {
	changed := false

	if r.CompletedTasks == nil {
		r.CompletedTasks = make(map[TaskType]bool)
		changed = true
	}
	for _, task := range AllTasks() {
		if _, ok := r.CompletedTasks[task]; !ok {
			r.CompletedTasks[task] = false
			changed = true
		}
	}

	if r.DownloadRefs == nil {
		r.DownloadRefs = make(map[TaskType]string)
		changed = true
	}

	if r.Tags == nil {
		r.Tags = []string{}
		changed = true
	}

	return changed
}
