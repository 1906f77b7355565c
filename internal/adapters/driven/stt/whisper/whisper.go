// Package whisper runs a local whisper.cpp binary for transcription.
package whisper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
)

// Ensure Transcriber implements the interface.
var _ driven.Transcriber = (*Transcriber)(nil)

// Default configuration values.
const (
	DefaultBinary = "whisper-cli"
	DefaultModel  = "ggml-large-v3-turbo.bin"
)

// Config holds configuration for the whisper.cpp transcriber.
type Config struct {
	// Binary is the whisper.cpp executable (default: whisper-cli,
	// resolved via PATH).
	Binary string

	// ModelPath is the path to the ggml model file.
	ModelPath string

	// Threads limits CPU threads; zero lets the binary decide.
	Threads int
}

// Transcriber shells out to whisper.cpp. The binary writes the
// transcript next to the requested output prefix; we return that path.
type Transcriber struct {
	binary    string
	modelPath string
	threads   int
}

// NewTranscriber creates a whisper.cpp backed transcriber.
func NewTranscriber(cfg Config) *Transcriber {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = DefaultModel
	}
	return &Transcriber{
		binary:    cfg.Binary,
		modelPath: cfg.ModelPath,
		threads:   cfg.Threads,
	}
}

// Transcribe runs the binary over audioPath and writes
// <outputDir>/<stem>.txt. The output directory is created if missing.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, outputDir string, opts driven.TranscribeOptions) (string, error) {
	if audioPath == "" {
		return "", fmt.Errorf("audio path: %w", domain.ErrInvalidInput)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file %s: %w", audioPath, domain.ErrNotFound)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	outPrefix := filepath.Join(outputDir, stem)

	args := []string{
		"-m", t.modelPath,
		"-f", audioPath,
		"-otxt",
		"-of", outPrefix,
	}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}
	if t.threads > 0 {
		args = append(args, "-t", fmt.Sprint(t.threads))
	}

	cmd := exec.CommandContext(ctx, t.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("whisper: %v: %s: %w", err, firstLine(out), domain.ErrProviderUnavailable)
	}

	transcript := outPrefix + ".txt"
	if _, err := os.Stat(transcript); err != nil {
		return "", fmt.Errorf("whisper produced no transcript at %s", transcript)
	}
	return transcript, nil
}

// ModelName returns the model file stem.
func (t *Transcriber) ModelName() string {
	base := filepath.Base(t.modelPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return s
}
