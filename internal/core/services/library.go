package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recordroute/recordroute/internal/content"
	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/core/ports/driving"
	"github.com/recordroute/recordroute/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService manages upload records and task completion. The
// registry is always written before the history record that points at
// it, so a crash leaves an orphaned identifier rather than a dangling
// download link.
type LibraryService struct {
	history    driven.HistoryStore
	assets     driven.AssetStore
	llm        driven.LLMService
	exporter   driven.NoteExporter
	layout     domain.Layout
	chunkChars int
	now        func() time.Time
}

// NewLibrary creates the library service. llm may be nil; summarisation
// then reports the engine unavailable. exporter may be nil; completed
// transcripts and summaries then stay local. chunkChars bounds the text
// sent per summarisation call, zero means DefaultSummaryChunkChars.
func NewLibrary(history driven.HistoryStore, assets driven.AssetStore, llm driven.LLMService, exporter driven.NoteExporter, layout domain.Layout, chunkChars int) *LibraryService {
	if chunkChars <= 0 {
		chunkChars = DefaultSummaryChunkChars
	}
	return &LibraryService{
		history:    history,
		assets:     assets,
		llm:        llm,
		exporter:   exporter,
		layout:     layout,
		chunkChars: chunkChars,
		now:        time.Now,
	}
}

// RegisterUpload stores the uploaded bytes under a fresh per-record
// folder and prepends a history record. An active record with the same
// content hash short-circuits the whole operation.
func (s *LibraryService) RegisterUpload(ctx context.Context, filename, sourceType string, data []byte, duration string) (*domain.UploadRecord, bool, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || strings.ContainsAny(filename, "/\\") {
		return nil, false, fmt.Errorf("bad filename %q: %w", filename, domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, false, fmt.Errorf("empty upload: %w", domain.ErrInvalidInput)
	}

	hash := content.HashBytes(data)

	if existing, err := s.findActiveByHash(ctx, hash); err != nil {
		return nil, false, err
	} else if existing != nil {
		logger.Debug("upload %s duplicates record %s", filename, existing.ID)
		return existing, true, nil
	}

	id := uuid.New().String()
	dir := filepath.Join(s.layout.UploadsDir(), id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, false, fmt.Errorf("create upload dir: %w", err)
	}
	dest := filepath.Join(dir, filename)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, false, fmt.Errorf("write upload: %w", err)
	}

	rec := domain.UploadRecord{
		ID:          id,
		Timestamp:   s.now().Format(time.RFC3339),
		Filename:    filename,
		SourceType:  sourceType,
		Duration:    duration,
		Path:        s.layout.RecordPath(dest),
		Folder:      id,
		ContentHash: hash,
	}
	domain.NormalizeRecord(&rec)

	var duplicate *domain.UploadRecord
	err := s.history.Update(ctx, func(history []domain.UploadRecord) ([]domain.UploadRecord, bool, error) {
		// Re-check under the store lock; a concurrent upload of the
		// same content may have won.
		for i := range history {
			if !history[i].Deleted && history[i].ContentHash == hash {
				duplicate = &history[i]
				return history, false, nil
			}
		}
		history = append([]domain.UploadRecord{rec}, history...)
		if len(history) > MaxHistoryRecords {
			history = history[:MaxHistoryRecords]
		}
		return history, true, nil
	})
	if err != nil {
		return nil, false, err
	}
	if duplicate != nil {
		dup := *duplicate
		os.RemoveAll(dir)
		return &dup, true, nil
	}
	return &rec, false, nil
}

// MaxHistoryRecords caps the history; the oldest records fall off.
const MaxHistoryRecords = 100

// CompleteTask registers the produced artifact, then flips the record's
// completion flag and stores its download reference. On a soft-deleted
// record the registration still happens but the record is untouched.
func (s *LibraryService) CompleteTask(ctx context.Context, recordID string, task domain.TaskType, path string) (string, error) {
	if !domain.ValidTask(task) {
		return "", fmt.Errorf("unknown task %q: %w", task, domain.ErrInvalidInput)
	}

	rec, err := s.findRecord(ctx, recordID)
	if err != nil {
		return "", err
	}

	id, err := s.assets.Register(ctx, path, recordID, task, filepath.Base(path))
	if err != nil {
		return "", err
	}

	if rec.Deleted {
		logger.Warn("task %s completed on deleted record %s", task, recordID)
		return id, nil
	}

	err = s.history.Update(ctx, func(history []domain.UploadRecord) ([]domain.UploadRecord, bool, error) {
		for i := range history {
			if history[i].ID != recordID {
				continue
			}
			if history[i].Deleted {
				return history, false, nil
			}
			domain.NormalizeRecord(&history[i])
			history[i].CompletedTasks[task] = true
			history[i].DownloadRefs[task] = "/download/" + id
			return history, true, nil
		}
		return history, false, nil
	})
	if err != nil {
		return "", err
	}

	s.exportArtifact(ctx, rec, task, path)
	return id, nil
}

// exportArtifact pushes a completed transcript or summary to the note
// vault. Export failures are logged, never surfaced: the vault is a
// mirror, not a store.
func (s *LibraryService) exportArtifact(ctx context.Context, rec *domain.UploadRecord, task domain.TaskType, path string) {
	if s.exporter == nil {
		return
	}
	if task != domain.TaskTranscript && task != domain.TaskSummary {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("export %s for record %s: %v", task, rec.ID, err)
		return
	}
	text := string(data)
	if task == domain.TaskTranscript {
		err = s.exporter.ExportTranscript(ctx, rec.ID, rec.Filename, text)
	} else {
		err = s.exporter.ExportSummary(ctx, rec.ID, rec.Filename, text)
	}
	if err != nil {
		logger.Warn("export %s for record %s: %v", task, rec.ID, err)
	}
}

// History returns all records, newest first.
func (s *LibraryService) History(ctx context.Context) ([]domain.UploadRecord, error) {
	return s.history.Load(ctx)
}

// ActiveHistory returns records that are not soft-deleted.
func (s *LibraryService) ActiveHistory(ctx context.Context) ([]domain.UploadRecord, error) {
	history, err := s.history.Load(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.UploadRecord, 0, len(history))
	for _, rec := range history {
		if !rec.Deleted {
			active = append(active, rec)
		}
	}
	return active, nil
}

// SetTitleSummary stores the one-line summary for a record.
func (s *LibraryService) SetTitleSummary(ctx context.Context, recordID, summary string) error {
	return s.updateRecord(ctx, recordID, func(rec *domain.UploadRecord) {
		rec.TitleSummary = strings.TrimSpace(summary)
	})
}

// GenerateTitleSummary summarises the given text file via the
// text-generation engine and stores the result on the record.
func (s *LibraryService) GenerateTitleSummary(ctx context.Context, recordID, path string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("no text-generation engine configured: %w", domain.ErrProviderUnavailable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	title, err := s.llm.Summarise(ctx, string(data))
	if err != nil {
		return "", err
	}
	if err := s.SetTitleSummary(ctx, recordID, title); err != nil {
		return "", err
	}
	return title, nil
}

// SetTags replaces a record's tags. Tags are trimmed and empties
// dropped.
func (s *LibraryService) SetTags(ctx context.Context, recordID string, tags []string) error {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return s.updateRecord(ctx, recordID, func(rec *domain.UploadRecord) {
		rec.Tags = cleaned
	})
}

// FilterHistory returns active records whose filename or any tag
// contains the query, case-insensitively. An empty query matches
// nothing.
func (s *LibraryService) FilterHistory(ctx context.Context, query string) ([]domain.UploadRecord, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	history, err := s.history.Load(ctx)
	if err != nil {
		return nil, err
	}
	var matched []domain.UploadRecord
	for _, rec := range history {
		if rec.Deleted {
			continue
		}
		if recordMatches(rec, query) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

func recordMatches(rec domain.UploadRecord, query string) bool {
	if strings.Contains(strings.ToLower(rec.Filename), query) {
		return true
	}
	for _, tag := range rec.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// Rename updates a record's user-facing filename.
func (s *LibraryService) Rename(ctx context.Context, recordID, newFilename string) error {
	newFilename = strings.TrimSpace(newFilename)
	if newFilename == "" {
		return fmt.Errorf("empty filename: %w", domain.ErrInvalidInput)
	}
	return s.updateRecord(ctx, recordID, func(rec *domain.UploadRecord) {
		rec.Filename = newFilename
	})
}

func (s *LibraryService) findRecord(ctx context.Context, recordID string) (*domain.UploadRecord, error) {
	history, err := s.history.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range history {
		if history[i].ID == recordID {
			return &history[i], nil
		}
	}
	return nil, fmt.Errorf("record %s: %w", recordID, domain.ErrNotFound)
}

func (s *LibraryService) findActiveByHash(ctx context.Context, hash string) (*domain.UploadRecord, error) {
	history, err := s.history.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range history {
		if !history[i].Deleted && history[i].ContentHash == hash {
			return &history[i], nil
		}
	}
	return nil, nil
}

func (s *LibraryService) updateRecord(ctx context.Context, recordID string, mutate func(*domain.UploadRecord)) error {
	found := false
	err := s.history.Update(ctx, func(history []domain.UploadRecord) ([]domain.UploadRecord, bool, error) {
		for i := range history {
			if history[i].ID == recordID {
				found = true
				mutate(&history[i])
				return history, true, nil
			}
		}
		return history, false, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("record %s: %w", recordID, domain.ErrNotFound)
	}
	return nil
}
