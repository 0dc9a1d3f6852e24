package pagestore

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/pdfmcr/internal/apperr"
	"github.com/starford/pdfmcr/internal/storage"
)

// Watcher event kinds.
const (
	EventCreated  = "created"
	EventRelinked = "relinked"
)

// EventCallback is called after a watcher-driven page change.
type EventCallback func(kind string, imagePath string)

// reconcileDelay debounces rename and removal reconciliation.
const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the image directory and turns JPEGs
// that appear in it into pages until ctx is cancelled. It calls cb (if
// non-nil) after each page change.
//
// New directories created at runtime are added to the watch list. Rename
// and remove events trigger a reconciliation pass that relinks pages to
// moved images.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
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
			if _, err := reconcile(db, store, logger, cb); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Images moved in together with the directory.
					scheduleReconcile()
					continue
				}
			}

			name := filepath.Base(absPath)
			if !storage.IsJPEG(name) || strings.HasPrefix(name, ".") {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				kind, impErr := addOrRelink(db, store, rel, data)
				switch {
				case errors.Is(impErr, apperr.ErrAlreadyExists):
					continue
				case errors.Is(impErr, apperr.ErrInvalidImage):
					// Possibly still being written; a later Write retries.
					logger.Debug("watcher: not a usable image yet", slog.String("path", rel), slog.String("error", impErr.Error()))
					continue
				case impErr != nil:
					logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", impErr.Error()))
					continue
				}
				logger.Debug("watcher: page "+kind, slog.String("path", rel))
				if cb != nil {
					cb(kind, rel)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// The new name of a renamed image arrives as a separate
				// Create; reconciliation relinks the page once it settles.
				logger.Debug("watcher: image gone", slog.String("path", rel))
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

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
