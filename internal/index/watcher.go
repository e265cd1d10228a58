package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/docfill/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven catalog change.
// kind is one of EventCreated, EventUpdated, EventDeleted.
type EventCallback func(kind string, name string)

// reconcileDelay debounces rename reconciliation.
const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the template directory and processes
// change events until ctx is cancelled. It calls cb (if non-nil) after each
// successful catalog mutation.
//
// The directory is flat: subdirectories are ignored. Rename events trigger a
// reconciliation pass that removes catalog entries whose files are gone and
// picks up the new name.
func Watch(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := w.Add(root); err != nil {
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

	notify := func(kind, name string) {
		if cb != nil {
			cb(kind, name)
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
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name, isTemplate := storage.NameFromFile(ev.Name)
			if !isTemplate {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(name)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("template", name), slog.String("error", readErr.Error()))
					continue
				}
				prev, _ := db.GetChecksum(name)
				if idxErr := IndexTemplate(db, name, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("template", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := EventUpdated
				if prev == "" {
					kind = EventCreated
				}
				logger.Debug("watcher: indexed", slog.String("template", name), slog.String("op", kind))
				notify(kind, name)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteTemplate(name); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("template", name), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("template", name))
				notify(EventDeleted, name)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the old name only; the new name
				// arrives as a Create when it stays in the directory. Atomic
				// writes also land here, so reconcile instead of guessing.
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

// reconcile removes catalog entries without a file on disk and indexes
// files whose checksum differs from the catalog.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Name] = m.Checksum
	}

	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if delErr := db.DeleteTemplate(name); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("template", name))
				notify(EventDeleted, name)
			}
		}
	}

	for name, cs := range disk {
		prev, known := checksums[name]
		if prev == cs {
			continue
		}
		data, readErr := store.Read(name)
		if readErr != nil {
			continue
		}
		if idxErr := IndexTemplate(db, name, data); idxErr == nil {
			kind := EventCreated
			if known {
				kind = EventUpdated
			}
			logger.Debug("reconcile: indexed", slog.String("template", name), slog.String("op", kind))
			notify(kind, name)
		}
	}
}
