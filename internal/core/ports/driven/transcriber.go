package driven

import "context"

// Transcriber converts audio files to text.
// This is an optional service - when nil, transcript tasks cannot run.
type Transcriber interface {
	// Transcribe writes one text file per input into outputDir and
	// returns the path of the produced transcript. Failures surface as
	// plain errors; the core never inspects provider-specific types.
	Transcribe(ctx context.Context, audioPath, outputDir string, opts TranscribeOptions) (string, error)

	// ModelName returns the name of the speech model being used.
	ModelName() string
}

// TranscribeOptions configures a transcription run.
type TranscribeOptions struct {
	// Language hints the spoken language, empty for auto-detect.
	Language string
}
