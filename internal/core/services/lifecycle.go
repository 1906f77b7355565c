package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/core/ports/driving"
	"github.com/recordroute/recordroute/internal/logger"
)

// Ensure LifecycleService implements the interface.
var _ driving.LifecycleService = (*LifecycleService)(nil)

// LifecycleService orchestrates mutations that touch more than one
// store. Stores are updated sequentially in a fixed order (registry,
// index, history) so a crash mid-operation leaves at worst an orphaned
// asset, never a record pointing at removed state.
type LifecycleService struct {
	history driven.HistoryStore
	assets  driven.AssetStore
	index   driven.IndexStore
	layout  domain.Layout
	now     func() time.Time
}

// NewLifecycle creates the lifecycle coordinator. Search results cached
// before a delete or reset stay until their TTL expires; the cache is
// never consulted for store state, so nothing dangles.
func NewLifecycle(
	history driven.HistoryStore,
	assets driven.AssetStore,
	index driven.IndexStore,
	layout domain.Layout,
) *LifecycleService {
	return &LifecycleService{
		history: history,
		assets:  assets,
		index:   index,
		layout:  layout,
		now:     time.Now,
	}
}

// ResetTasks removes the named task artifacts for one record and clears
// its completion flags. A soft-deleted record yields all-false results
// without touching anything.
func (s *LifecycleService) ResetTasks(ctx context.Context, recordID string, tasks []domain.TaskType) (map[domain.TaskType]bool, error) {
	for _, task := range tasks {
		if !domain.ValidTask(task) {
			return nil, fmt.Errorf("unknown task %q: %w", task, domain.ErrInvalidInput)
		}
	}

	rec, err := s.findRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	result := make(map[domain.TaskType]bool, len(tasks))
	if rec.Deleted {
		for _, task := range tasks {
			result[task] = false
		}
		return result, nil
	}

	for _, task := range tasks {
		reset, err := s.resetTask(ctx, rec, task)
		if err != nil {
			return nil, err
		}
		result[task] = reset
	}
	return result, nil
}

// ResetAllRecords resets the named tasks for every active record and
// returns per-task reset counts.
func (s *LifecycleService) ResetAllRecords(ctx context.Context, tasks []domain.TaskType) (map[domain.TaskType]int, error) {
	history, err := s.history.Load(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.TaskType]int, len(tasks))
	for _, task := range tasks {
		counts[task] = 0
	}
	for _, rec := range history {
		if rec.Deleted {
			continue
		}
		result, err := s.ResetTasks(ctx, rec.ID, tasks)
		if err != nil {
			return nil, err
		}
		for task, reset := range result {
			if reset {
				counts[task]++
			}
		}
	}
	return counts, nil
}

// ResetRecord removes every derived artifact and index entry for a
// record and clears all completion state. The original upload stays.
func (s *LifecycleService) ResetRecord(ctx context.Context, recordID string) error {
	rec, err := s.findRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.Deleted {
		return fmt.Errorf("record %s: %w", recordID, domain.ErrAlreadyDeleted)
	}

	if _, err := s.ResetTasks(ctx, recordID, domain.AllTasks()); err != nil {
		return err
	}

	// Derived outputs live under the record folder; resetting the
	// record discards the whole tree.
	if rec.Folder != "" {
		outDir := filepath.Join(s.layout.OutputsDir(), rec.Folder)
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("remove outputs for %s: %w", recordID, err)
		}
	}
	return nil
}

// SoftDeleteRecords moves each record's files into the deleted area and
// flags every store entry. Outcomes are per record; one failure never
// aborts the batch. Vector files shared between index entries move at
// most once.
func (s *LifecycleService) SoftDeleteRecords(ctx context.Context, recordIDs []string) (map[string]domain.DeleteOutcome, error) {
	outcomes := make(map[string]domain.DeleteOutcome, len(recordIDs))
	movedVectors := map[string]bool{}

	for _, id := range recordIDs {
		if err := s.softDeleteRecord(ctx, id, movedVectors); err != nil {
			logger.Warn("soft-delete %s: %v", id, err)
			outcomes[id] = domain.DeleteOutcome{Success: false, Error: err.Error()}
			continue
		}
		outcomes[id] = domain.DeleteOutcome{Success: true}
	}
	return outcomes, nil
}

// resetTask applies one task reset across the stores in the fixed
// order: registry entries removed, files deleted, index entries pruned
// (embedding only), completion flag cleared last.
func (s *LifecycleService) resetTask(ctx context.Context, rec *domain.UploadRecord, task domain.TaskType) (bool, error) {
	paths, err := s.removeRegistryEntries(ctx, rec.ID, task)
	if err != nil {
		return false, err
	}
	anything := len(paths) > 0

	if task != domain.TaskEmbedding {
		for _, stored := range paths {
			abs := s.layout.ResolveRecordPath(stored)
			if err := os.Remove(abs); err == nil {
				anything = true
			} else if !os.IsNotExist(err) {
				return false, fmt.Errorf("remove %s: %w", abs, err)
			}
			// Manual corrections live next to the transcript and go
			// with it.
			if task == domain.TaskTranscript {
				corrected := strings.TrimSuffix(abs, filepath.Ext(abs)) + ".corrected.md"
				if err := os.Remove(corrected); err == nil {
					anything = true
				}
			}
		}
	}

	if task == domain.TaskEmbedding {
		pruned, err := s.pruneIndexEntries(ctx, rec.Folder)
		if err != nil {
			return false, err
		}
		anything = anything || pruned
	}

	flagged := false
	err = s.history.Update(ctx, func(history []domain.UploadRecord) ([]domain.UploadRecord, bool, error) {
		for i := range history {
			if history[i].ID != rec.ID {
				continue
			}
			domain.NormalizeRecord(&history[i])
			changed := false
			if history[i].CompletedTasks[task] {
				history[i].CompletedTasks[task] = false
				changed = true
			}
			if _, ok := history[i].DownloadRefs[task]; ok {
				delete(history[i].DownloadRefs, task)
				changed = true
			}
			if task == domain.TaskSummary && history[i].TitleSummary != "" {
				history[i].TitleSummary = ""
				changed = true
			}
			flagged = changed
			return history, changed, nil
		}
		return history, false, nil
	})
	if err != nil {
		return false, err
	}
	return anything || flagged, nil
}

// removeRegistryEntries hard-removes the record's registry entries for
// one task and returns their stored paths.
func (s *LifecycleService) removeRegistryEntries(ctx context.Context, recordID string, task domain.TaskType) ([]string, error) {
	var paths []string
	err := s.assets.Update(ctx, func(registry map[string]domain.Asset) (bool, error) {
		for id, asset := range registry {
			if asset.RecordID == recordID && asset.TaskType == task {
				paths = append(paths, asset.Path)
				delete(registry, id)
			}
		}
		return len(paths) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// pruneIndexEntries removes every index entry under the record folder.
// A vector file is deleted only when no surviving entry references it.
func (s *LifecycleService) pruneIndexEntries(ctx context.Context, folder string) (bool, error) {
	if folder == "" {
		return false, nil
	}

	var orphaned []string
	pruned := false
	err := s.index.Update(ctx, func(index map[string]domain.IndexEntry) (bool, error) {
		removedVectors := map[string]bool{}
		removed := false
		for key, entry := range index {
			if keyInFolder(key, folder) {
				removedVectors[entry.Vector] = true
				delete(index, key)
				removed = true
			}
		}
		if !removed {
			return false, nil
		}
		pruned = true
		for _, entry := range index {
			delete(removedVectors, entry.Vector)
		}
		for name := range removedVectors {
			orphaned = append(orphaned, name)
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}

	for _, name := range orphaned {
		if err := os.Remove(filepath.Join(s.layout.VectorDir(), name)); err != nil && !os.IsNotExist(err) {
			logger.Warn("remove vector %s: %v", name, err)
		}
	}
	return pruned, nil
}

// softDeleteRecord runs the full soft-delete pipeline for one record.
func (s *LifecycleService) softDeleteRecord(ctx context.Context, recordID string, movedVectors map[string]bool) error {
	rec, err := s.findRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.Deleted {
		return domain.ErrAlreadyDeleted
	}

	deletedAt := s.now().Format(time.RFC3339)
	manifest := &domain.DeletedAssets{Files: map[domain.TaskType][]string{}}

	// Move the upload and output folders into the deleted mirror.
	if rec.Folder != "" {
		src := filepath.Join(s.layout.UploadsDir(), rec.Folder)
		dst := filepath.Join(s.layout.DeletedUploadsDir(), rec.Folder)
		moved, err := movePath(src, dst)
		if err != nil {
			return fmt.Errorf("move uploads: %w", err)
		}
		if moved {
			manifest.Uploads = s.layout.RecordPath(dst)
		}

		src = filepath.Join(s.layout.OutputsDir(), rec.Folder)
		dst = filepath.Join(s.layout.DeletedOutputsDir(), rec.Folder)
		moved, err = movePath(src, dst)
		if err != nil {
			return fmt.Errorf("move outputs: %w", err)
		}
		if moved {
			manifest.Outputs = s.layout.RecordPath(dst)
		}
	}

	// Registry: flag the record's assets and point them at the mirror.
	err = s.assets.Update(ctx, func(registry map[string]domain.Asset) (bool, error) {
		changed := false
		for id, asset := range registry {
			if asset.RecordID != recordID || asset.Deleted {
				continue
			}
			at := deletedAt
			asset.Deleted = true
			asset.DeletedAt = &at
			asset.Path = deletedMirrorPath(asset.Path)
			registry[id] = asset
			manifest.Files[asset.TaskType] = append(manifest.Files[asset.TaskType], asset.Path)
			changed = true
		}
		return changed, nil
	})
	if err != nil {
		return fmt.Errorf("flag registry: %w", err)
	}

	// Index: flag the record's entries and move their vector files,
	// each at most once per batch and only when no live entry still
	// references it.
	var vectorMoves []string
	err = s.index.Update(ctx, func(index map[string]domain.IndexEntry) (bool, error) {
		changed := false
		flagged := map[string]bool{}
		for key, entry := range index {
			if !keyInFolder(key, rec.Folder) || entry.Deleted {
				continue
			}
			entry.Deleted = true
			entry.DeletedAt = deletedAt
			entry.DeletedPath = domain.DeletedDirName + "/" + domain.OutputsDirName + "/" + key
			index[key] = entry
			flagged[key] = true
			changed = true
		}
		if !changed {
			return false, nil
		}

		live := map[string]bool{}
		for _, entry := range index {
			if !entry.Deleted {
				live[entry.Vector] = true
			}
		}
		for key := range flagged {
			entry := index[key]
			if live[entry.Vector] {
				continue
			}
			if !movedVectors[entry.Vector] {
				vectorMoves = append(vectorMoves, entry.Vector)
				movedVectors[entry.Vector] = true
			}
			entry.VectorDeletedPath = domain.DeletedDirName + "/" + domain.VectorDirName + "/" + entry.Vector
			index[key] = entry
			manifest.Vectors = append(manifest.Vectors, entry.VectorDeletedPath)
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("flag index: %w", err)
	}

	for _, name := range vectorMoves {
		src := filepath.Join(s.layout.VectorDir(), name)
		dst := filepath.Join(s.layout.DeletedVectorDir(), name)
		if _, err := movePath(src, dst); err != nil {
			logger.Warn("move vector %s: %v", name, err)
		}
	}

	// History last: the record only reads as deleted once every other
	// store already is.
	err = s.history.Update(ctx, func(history []domain.UploadRecord) ([]domain.UploadRecord, bool, error) {
		for i := range history {
			if history[i].ID != recordID {
				continue
			}
			if history[i].Deleted {
				return history, false, nil
			}
			at := deletedAt
			history[i].Deleted = true
			history[i].DeletedAt = &at
			history[i].DeletedAssets = manifest
			return history, true, nil
		}
		return history, false, nil
	})
	if err != nil {
		return fmt.Errorf("flag history: %w", err)
	}
	return nil
}

func (s *LifecycleService) findRecord(ctx context.Context, recordID string) (*domain.UploadRecord, error) {
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

// keyInFolder reports whether a canonical outputs key belongs to the
// given record folder.
func keyInFolder(key, folder string) bool {
	return folder != "" && strings.HasPrefix(key, folder+"/")
}

// deletedMirrorPath maps a stored base-relative path to its location
// under the deleted area.
func deletedMirrorPath(stored string) string {
	p := strings.ReplaceAll(stored, "\\", "/")
	if strings.HasPrefix(p, domain.DeletedDirName+"/") {
		return p
	}
	return domain.DeletedDirName + "/" + p
}

// movePath renames src to dst, creating dst's parent. A missing src is
// not an error; it reports moved=false.
func movePath(src, dst string) (bool, error) {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	if err := os.Rename(src, dst); err != nil {
		return false, err
	}
	return true, nil
}
