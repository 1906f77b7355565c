package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/recordroute/recordroute/internal/adapters/driven/stt/whisper"
	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
)

// transcriber is package-level so tests can inject a fake.
var transcriber driven.Transcriber

var transcribeLanguage string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [record-id]",
	Short: "Transcribe a record's audio via whisper.cpp",
	Long: `Runs the configured whisper.cpp binary over the record's uploaded
audio, writes the transcript into the record's output folder and marks
the transcript task complete.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVarP(&transcribeLanguage, "language", "l", "", "spoken language hint (default auto-detect)")
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}
	if transcriber == nil {
		transcriber = whisper.NewTranscriber(whisper.Config{
			Binary:    appConfig.Whisper.Binary,
			ModelPath: appConfig.Whisper.ModelPath,
			Threads:   appConfig.Whisper.Threads,
		})
	}

	ctx := context.Background()
	recordID := args[0]

	records, err := libraryService.History(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	var rec *domain.UploadRecord
	for i := range records {
		if records[i].ID == recordID {
			rec = &records[i]
			break
		}
	}
	if rec == nil {
		return fmt.Errorf("record %s: %w", recordID, domain.ErrNotFound)
	}
	if rec.Deleted {
		return fmt.Errorf("record %s: %w", recordID, domain.ErrAlreadyDeleted)
	}

	audio := appLayout.ResolveRecordPath(rec.Path)
	outDir := filepath.Join(appLayout.OutputsDir(), rec.Folder)

	cmd.Printf("Transcribing %s with %s...\n", rec.Filename, transcriber.ModelName())
	transcript, err := transcriber.Transcribe(ctx, audio, outDir, driven.TranscribeOptions{
		Language: transcribeLanguage,
	})
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	id, err := libraryService.CompleteTask(ctx, recordID, domain.TaskTranscript, transcript)
	if err != nil {
		return fmt.Errorf("record transcript: %w", err)
	}

	cmd.Printf("Transcript ready: %s\n", dimStyle.Render(transcript))
	cmd.Printf("  download /download/%s\n", id)
	return nil
}
