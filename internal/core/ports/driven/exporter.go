package driven

import "context"

// NoteExporter pushes produced artifacts into an external note vault.
// This is an optional service - when nil, task completion skips the
// export.
//
// The note is keyed by the owning record's identifier: the transcript
// creates it and the summary is appended to the same note.
type NoteExporter interface {
	// ExportTranscript sends transcript text to the vault note for
	// noteID, creating the note when it does not exist yet.
	ExportTranscript(ctx context.Context, noteID, filename, text string) error

	// ExportSummary appends summary text to the vault note for noteID,
	// creating the note when the transcript stage was skipped.
	ExportSummary(ctx context.Context, noteID, filename, text string) error
}
