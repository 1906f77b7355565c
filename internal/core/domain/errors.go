package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record, asset or index entry
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyDeleted indicates an operation targeted a record that
	// is already soft-deleted.
	ErrAlreadyDeleted = errors.New("already deleted")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable indicates an external engine (embedding,
	// text generation, transcription) is unreachable or timed out.
	// Callers must be able to distinguish this from an empty result.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrEmptyText indicates there was no text to embed or summarise.
	ErrEmptyText = errors.New("empty text")
)

// DeleteOutcome reports the result of deleting a single record within
// a batch. Batch operations return a map of record id to outcome, never
// an all-or-nothing boolean.
type DeleteOutcome struct {
	// Success is true if the record's assets were moved and flagged.
	Success bool `json:"success"`

	// Error holds a human-readable reason when Success is false.
	Error string `json:"error,omitempty"`
}
