// Package watch re-indexes summary files as they change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/recordroute/recordroute/internal/core/ports/driving"
	"github.com/recordroute/recordroute/internal/logger"
)

// DefaultDebounce batches bursts of filesystem events into one scan.
const DefaultDebounce = 1500 * time.Millisecond

// Watcher triggers an incremental index scan after the watched tree
// settles. Events only arm a debounce timer; the scan itself always
// walks the whole tree, so missed events cost nothing.
type Watcher struct {
	indexer  driving.Indexer
	dir      string
	debounce time.Duration
}

// New creates a watcher over dir. A non-positive debounce selects
// DefaultDebounce.
func New(indexer driving.Indexer, dir string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{indexer: indexer, dir: dir, debounce: debounce}
}

// Run watches until ctx is cancelled. Subdirectories are added as they
// appear; fsnotify does not watch recursively on its own.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	if err := addRecursive(watcher, w.dir); err != nil {
		return err
	}

	// Catch up on anything written while we were not running.
	if report, err := w.indexer.ScanDir(ctx, w.dir); err != nil {
		logger.Warn("initial scan: %v", err)
	} else {
		logger.Info("initial scan: %d indexed, %d skipped", report.Indexed, report.Skipped)
	}

	timer := time.NewTimer(0)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}
		case <-timer.C:
			report, err := w.indexer.ScanDir(ctx, w.dir)
			if err != nil {
				logger.Warn("scan after change: %v", err)
				continue
			}
			if report.Indexed > 0 || len(report.Failures) > 0 {
				logger.Info("re-index: %d indexed, %d failed", report.Indexed, len(report.Failures))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
