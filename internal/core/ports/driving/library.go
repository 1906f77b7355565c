package driving

import (
	"context"

	"github.com/recordroute/recordroute/internal/core/domain"
)

// LibraryService manages upload records and task completion.
type LibraryService interface {
	// RegisterUpload stores the uploaded bytes in a fresh per-record
	// folder and prepends a history record. When an active record
	// already carries the same content hash, that record is returned
	// with duplicate=true and nothing is written.
	RegisterUpload(ctx context.Context, filename, sourceType string, data []byte, duration string) (rec *domain.UploadRecord, duplicate bool, err error)

	// CompleteTask registers the produced artifact, flips the record's
	// completion flag and stores the download reference. Returns the
	// minted identifier. Completing a task on a soft-deleted record
	// registers nothing on the record but still returns an identifier,
	// matching the registry-first write order.
	CompleteTask(ctx context.Context, recordID string, task domain.TaskType, path string) (string, error)

	// History returns all records, newest first.
	History(ctx context.Context) ([]domain.UploadRecord, error)

	// ActiveHistory returns records that are not soft-deleted.
	ActiveHistory(ctx context.Context) ([]domain.UploadRecord, error)

	// FilterHistory returns active records whose filename or tags
	// contain the query, case-insensitively.
	FilterHistory(ctx context.Context, query string) ([]domain.UploadRecord, error)

	// SummarizeRecord derives a structured summary of the record's
	// transcript (or of the uploaded document itself) and writes it
	// as the record's summary artifact. Returns the artifact path and
	// marks the summary task complete.
	SummarizeRecord(ctx context.Context, recordID string) (string, error)

	// SetTags replaces a record's tags.
	SetTags(ctx context.Context, recordID string, tags []string) error

	// SetTitleSummary stores the one-line summary for a record.
	SetTitleSummary(ctx context.Context, recordID, summary string) error

	// GenerateTitleSummary produces and stores a one-line summary of
	// the given text file via the text-generation engine.
	GenerateTitleSummary(ctx context.Context, recordID, path string) (string, error)

	// Rename updates a record's user-facing filename.
	Rename(ctx context.Context, recordID, newFilename string) error
}

// LifecycleService orchestrates multi-store mutations so the registry,
// index, history and filesystem stay consistent.
type LifecycleService interface {
	// ResetTasks removes the named task artifacts for one record and
	// clears its completion flags. A soft-deleted record yields a
	// zero-effect result, not an error.
	ResetTasks(ctx context.Context, recordID string, tasks []domain.TaskType) (map[domain.TaskType]bool, error)

	// ResetAllRecords resets the named tasks for every active record
	// and returns per-task reset counts.
	ResetAllRecords(ctx context.Context, tasks []domain.TaskType) (map[domain.TaskType]int, error)

	// ResetRecord removes every derived artifact and index entry for a
	// record and clears all completion state. Returns
	// domain.ErrAlreadyDeleted for a soft-deleted record and
	// domain.ErrNotFound for an unknown one.
	ResetRecord(ctx context.Context, recordID string) error

	// SoftDeleteRecords moves each record's files into the deleted
	// area and flags every store entry. The outcome is reported per
	// record; one failure never aborts the batch.
	SoftDeleteRecords(ctx context.Context, recordIDs []string) (map[string]domain.DeleteOutcome, error)
}
