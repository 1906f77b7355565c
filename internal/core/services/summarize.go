package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/recordroute/recordroute/internal/content"
	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/logger"
)

// DefaultSummaryChunkChars bounds the text sent per summarisation call.
// Large enough that most transcripts summarise in a single pass.
const DefaultSummaryChunkChars = 32000

// summaryTemperature keeps summaries factual rather than creative.
const summaryTemperature = 0.2

const summaryInstructions = `You are a professional summarizer. Produce a concise, structured
summary of the text below.

Rules:
- Use bullet points.
- Stick to the facts; no interpretation, speculation or opinion.
- Use exactly these section headings, in this order:
  1) Main topics
  2) Key points
  3) Decisions
  4) Action items
  5) Risks and issues
  6) Upcoming schedule

The output must contain only those six sections.`

const summaryChunkPrompt = summaryInstructions + `

Summarize the following text:
---
%s
---`

const summaryReducePrompt = summaryInstructions + `

Below are summaries of consecutive parts of one document. Merge them
into a single final summary, dropping duplicates and reconciling any
conflicts:
---
%s
---`

// SummarizeRecord derives a structured summary of a record's text and
// writes it next to the record's other artifacts as
// outputs/<folder>/<stem>.summary.md. The summary task is then marked
// complete, which makes the file eligible for indexing.
//
// The source text is the transcript artifact when one exists, falling
// back to the uploaded file itself for plain document uploads. Long
// texts are summarised map-reduce style: each chunk on its own, then
// the partial summaries merged in a final call.
func (s *LibraryService) SummarizeRecord(ctx context.Context, recordID string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("no text-generation engine configured: %w", domain.ErrProviderUnavailable)
	}

	rec, err := s.findRecord(ctx, recordID)
	if err != nil {
		return "", err
	}
	if rec.Deleted {
		return "", fmt.Errorf("record %s: %w", recordID, domain.ErrAlreadyDeleted)
	}

	source, err := s.summarySource(ctx, rec)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", source, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("summarize %s: %w", source, domain.ErrEmptyText)
	}

	summary, err := s.summarize(ctx, text)
	if err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(rec.Filename, filepath.Ext(rec.Filename))
	dir := filepath.Join(s.layout.OutputsDir(), rec.Folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(dir, stem+SummarySuffix)
	if err := os.WriteFile(outPath, []byte(summary+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}

	if _, err := s.CompleteTask(ctx, recordID, domain.TaskSummary, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// summarySource picks the text file to summarise: the transcript
// artifact when the transcript task completed, the upload itself
// otherwise. A legacy corrected transcript takes precedence when it
// sits next to the artifact.
func (s *LibraryService) summarySource(ctx context.Context, rec *domain.UploadRecord) (string, error) {
	ref := rec.DownloadRefs[domain.TaskTranscript]
	if ref == "" || !rec.CompletedTasks[domain.TaskTranscript] {
		return s.layout.ResolveRecordPath(rec.Path), nil
	}
	resolved, err := s.assets.Resolve(ctx, domain.ParseReference(ref))
	if err != nil {
		return "", fmt.Errorf("resolve transcript for %s: %w", rec.ID, err)
	}
	path := resolved.AbsPath
	corrected := strings.TrimSuffix(path, filepath.Ext(path)) + ".corrected.md"
	if _, err := os.Stat(corrected); err == nil {
		return corrected, nil
	}
	return path, nil
}

// summarize runs the chunked map-reduce over the text. A single chunk
// is summarised directly.
func (s *LibraryService) summarize(ctx context.Context, text string) (string, error) {
	opts := driven.GenerateOptions{Temperature: summaryTemperature}

	chunks := content.Split(text, s.chunkChars)
	if len(chunks) == 1 {
		return s.llm.Generate(ctx, fmt.Sprintf(summaryChunkPrompt, chunks[0]), opts)
	}

	logger.Info("summarising %d chunks", len(chunks))
	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		logger.Debug("summarising chunk %d/%d", i+1, len(chunks))
		partial, err := s.llm.Generate(ctx, fmt.Sprintf(summaryChunkPrompt, chunk), opts)
		if err != nil {
			return "", fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		partials = append(partials, partial)
	}

	merged := strings.Join(partials, "\n\n---\n\n")
	return s.llm.Generate(ctx, fmt.Sprintf(summaryReducePrompt, merged), opts)
}
