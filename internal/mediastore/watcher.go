package mediastore

import (
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RefLister reports the set of media src values referenced by the database.
type RefLister interface {
	MediaRefs(ctx context.Context) (map[string]struct{}, error)
}

// EventCallback is called after a watcher-driven reconciliation pass with the
// src paths of files on disk that no node references.
type EventCallback func(orphans []string)

// Watch starts an fsnotify watcher on the uploads directory and reconciles
// disk state against database media references until ctx is cancelled.
// Uploads are not transactional with node writes, so a crash between the two
// leaves files on disk with no referencing record; this watcher surfaces
// those orphans rather than deleting them.
func Watch(ctx context.Context, fs *FS, refs RefLister, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(fs.Root()); err != nil {
		return err
	}

	logger.Info("uploads watcher: started", slog.String("root", fs.Root()))

	// Debounce bursts of events (one upload batch = many writes).
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(500 * time.Millisecond)
			timerCh = timer.C
		} else {
			timer.Reset(500 * time.Millisecond)
		}
	}

	// Initial pass catches orphans from earlier runs.
	reconcile(ctx, fs, refs, logger, cb)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("uploads watcher: stopped")
			return nil

		case <-timerCh:
			reconcile(ctx, fs, refs, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("uploads watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// Orphans lists files on disk whose src is not referenced by any node.
func Orphans(ctx context.Context, fs *FS, refs RefLister) ([]string, error) {
	files, err := fs.List()
	if err != nil {
		return nil, err
	}
	referenced, err := refs.MediaRefs(ctx)
	if err != nil {
		return nil, err
	}

	orphans := []string{}
	for _, name := range files {
		src := path.Join("/uploads", name)
		if _, ok := referenced[src]; !ok {
			orphans = append(orphans, src)
		}
	}
	return orphans, nil
}

func reconcile(ctx context.Context, fs *FS, refs RefLister, logger *slog.Logger, cb EventCallback) {
	orphans, err := Orphans(ctx, fs, refs)
	if err != nil {
		logger.Warn("uploads watcher: reconcile failed", slog.String("error", err.Error()))
		return
	}
	if len(orphans) > 0 {
		logger.Info("uploads watcher: orphaned files on disk", slog.Int("count", len(orphans)))
	}
	if cb != nil {
		cb(orphans)
	}
}
