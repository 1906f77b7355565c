package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/recordroute/recordroute/internal/content"
	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/core/ports/driving"
	"github.com/recordroute/recordroute/internal/logger"
	"github.com/recordroute/recordroute/internal/vector"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// SummarySuffix marks the derived files the indexer embeds.
const SummarySuffix = ".summary.md"

// IndexerService keeps the embedding index in step with the summary
// files on disk. Unchanged files (by content hash) are skipped, so a
// full rescan is cheap.
type IndexerService struct {
	index    driven.IndexStore
	embedder driven.EmbeddingService
	library  driving.LibraryService
	layout   domain.Layout
	maxChars int
}

// NewIndexer creates the incremental indexer. maxChars bounds the text
// sent per embedding call; zero means content.DefaultMaxChars. library
// may be nil; indexed documents then do not flip their record's
// embedding flag.
func NewIndexer(index driven.IndexStore, embedder driven.EmbeddingService, library driving.LibraryService, layout domain.Layout, maxChars int) *IndexerService {
	if maxChars <= 0 {
		maxChars = content.DefaultMaxChars
	}
	return &IndexerService{
		index:    index,
		embedder: embedder,
		library:  library,
		layout:   layout,
		maxChars: maxChars,
	}
}

// ScanDir embeds every new or changed summary file under dir. Per-file
// failures are collected in the report; only infrastructure failures
// (index unreadable, missing embedder) abort the scan.
func (s *IndexerService) ScanDir(ctx context.Context, dir string) (*driving.IndexReport, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedding engine configured: %w", domain.ErrProviderUnavailable)
	}

	var candidates []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), SummarySuffix) {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &driving.IndexReport{Failures: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(candidates)

	index, err := s.index.Load(ctx)
	if err != nil {
		return nil, err
	}

	report := &driving.IndexReport{
		Scanned:  len(candidates),
		Failures: map[string]string{},
	}
	updates := make(map[string]domain.IndexEntry)
	var indexed []string

	for _, path := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		entry, changed, err := s.embedFile(ctx, path, index)
		if err != nil {
			report.Failures[path] = err.Error()
			logger.Warn("index %s: %v", path, err)
			continue
		}
		if !changed {
			report.Skipped++
			continue
		}
		updates[s.index.KeyFor(path)] = entry
		indexed = append(indexed, path)
		report.Indexed++
	}

	if len(updates) > 0 {
		err := s.index.Update(ctx, func(index map[string]domain.IndexEntry) (bool, error) {
			for key, entry := range updates {
				index[key] = entry
			}
			return true, nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.markEmbedded(ctx, indexed)
	return report, nil
}

// IndexFile embeds a single file if its content hash changed. Returns
// false when the stored entry was already current.
func (s *IndexerService) IndexFile(ctx context.Context, path string) (bool, error) {
	if s.embedder == nil {
		return false, fmt.Errorf("no embedding engine configured: %w", domain.ErrProviderUnavailable)
	}

	index, err := s.index.Load(ctx)
	if err != nil {
		return false, err
	}

	entry, changed, err := s.embedFile(ctx, path, index)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	key := s.index.KeyFor(path)
	err = s.index.Update(ctx, func(index map[string]domain.IndexEntry) (bool, error) {
		index[key] = entry
		return true, nil
	})
	if err != nil {
		return false, err
	}

	s.markEmbedded(ctx, []string{path})
	return true, nil
}

// markEmbedded flips the embedding flag on the records owning the
// freshly indexed documents. Output folders are named after the record,
// so the leading key segment identifies the owner. Completion failures
// are logged; the index write already succeeded.
func (s *IndexerService) markEmbedded(ctx context.Context, paths []string) {
	if s.library == nil || len(paths) == 0 {
		return
	}
	history, err := s.library.ActiveHistory(ctx)
	if err != nil {
		logger.Warn("mark embeddings complete: %v", err)
		return
	}
	byFolder := make(map[string]domain.UploadRecord, len(history))
	for _, rec := range history {
		byFolder[rec.Folder] = rec
	}
	for _, path := range paths {
		folder, _, ok := strings.Cut(s.index.KeyFor(path), "/")
		if !ok {
			continue
		}
		rec, owned := byFolder[folder]
		if !owned || rec.CompletedTasks[domain.TaskEmbedding] {
			continue
		}
		if _, err := s.library.CompleteTask(ctx, rec.ID, domain.TaskEmbedding, path); err != nil {
			logger.Warn("mark embedding complete for %s: %v", rec.ID, err)
			continue
		}
		rec.CompletedTasks[domain.TaskEmbedding] = true
		byFolder[folder] = rec
	}
}

// embedFile decides whether path needs (re)embedding against the given
// index snapshot and, when it does, writes the vector and returns the
// fresh entry.
func (s *IndexerService) embedFile(ctx context.Context, path string, index map[string]domain.IndexEntry) (domain.IndexEntry, bool, error) {
	hash, err := content.HashFile(path)
	if err != nil {
		return domain.IndexEntry{}, false, err
	}

	key := s.index.KeyFor(path)
	if existing, ok := index[key]; ok && !existing.Deleted && existing.SHA256 == hash {
		if _, err := s.index.ReadVector(existing.Vector); err == nil {
			return domain.IndexEntry{}, false, nil
		}
		// Entry is current but its vector file is gone; re-embed.
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.IndexEntry{}, false, err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return domain.IndexEntry{}, false, domain.ErrEmptyText
	}

	chunks := content.Split(text, s.maxChars)
	vecs := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		v, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return domain.IndexEntry{}, false, err
		}
		vecs = append(vecs, v)
	}
	doc, err := vector.Mean(vecs)
	if err != nil {
		return domain.IndexEntry{}, false, err
	}

	name := vectorName(path)
	if err := s.index.WriteVector(name, doc); err != nil {
		return domain.IndexEntry{}, false, err
	}

	timestamp := time.Now().Format(time.RFC3339)
	if info, err := os.Stat(path); err == nil {
		timestamp = info.ModTime().Format(time.RFC3339)
	}

	return domain.IndexEntry{
		SHA256:    hash,
		Vector:    name,
		Timestamp: timestamp,
		Base:      s.layout.AreaFor(key),
	}, true, nil
}

// vectorName derives the vector filename from the document stem, so a
// re-embedded document overwrites its previous vector in place.
func vectorName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".vec"
}
