package importer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/devflow/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the import root and processes bundle
// change events until ctx is cancelled. It calls cb (if non-nil) after each
// import that changed the store.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced Sync that removes records of bundles that no
// longer exist and imports the renamed file.
func Watch(ctx context.Context, db Store, files storage.Provider, root string, logger *slog.Logger, cb ChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(ctx, db, files, logger, cb); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files may land in the directory before it is watched.
					scheduleReconcile()
					continue
				}
			}

			if !storage.IsBundle(ev.Name) {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				imported, known, impErr := importIfChanged(ctx, db, files, rel)
				if impErr != nil {
					logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", impErr.Error()))
					continue
				}
				if !imported {
					continue
				}
				action := actionFor(known)
				logger.Debug("watcher: imported", slog.String("path", rel), slog.String("op", action))
				notify(cb, action, rel)

			case ev.Op&fsnotify.Remove != 0:
				if err := forget(ctx, db, rel, logger); err != nil {
					logger.Warn("watcher: remove failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				notify(cb, ActionDeleted, rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports the old path only; the new one arrives as
				// a Create when it stays inside a watched directory.
				if err := forget(ctx, db, rel, logger); err != nil {
					logger.Warn("watcher: rename remove failed", slog.String("path", rel), slog.String("error", err.Error()))
				} else {
					notify(cb, ActionDeleted, rel)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
