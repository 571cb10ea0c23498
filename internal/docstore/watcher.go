package docstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change kinds passed to ChangeCallback.
const (
	ChangeWritten = "written"
	ChangeRemoved = "removed"
)

const settleDelay = 200 * time.Millisecond

// ChangeCallback is called once per key after a burst of file events on its
// document settles.
type ChangeCallback func(kind, key string)

// Watch observes the document directory and reports documents changed by
// anything, including this process. Events are coalesced per key for a
// short settle delay so an atomic write (temp file, then rename) yields a
// single callback. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, dir string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("docstore watcher: started", slog.String("dir", dir))

	pending := make(map[string]string)
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	schedule := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("docstore watcher: stopped")
			return nil

		case <-settleCh:
			for key, kind := range pending {
				logger.Debug("docstore watcher: change", slog.String("key", key), slog.String("kind", kind))
				if cb != nil {
					cb(kind, key)
				}
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			key, isDoc := KeyFromPath(filepath.Base(ev.Name))
			if !isDoc {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[key] = ChangeWritten
				schedule()
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				pending[key] = ChangeRemoved
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("docstore watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
