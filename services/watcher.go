package services

import (
	"context"
	"time"

	"beatvault/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher observes library folders and fires a rescan when files change.
// Events are debounced so bulk copies trigger one rescan, not hundreds.
// Only the folder roots are watched; new subdirectories are picked up by the
// rescan itself.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	rescan   func()
}

// NewWatcher creates a watcher that calls rescan after the debounce window.
func NewWatcher(debounce time.Duration, rescan func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, debounce: debounce, rescan: rescan}, nil
}

// Watch registers the given folder roots.
func (w *Watcher) Watch(folders []string) error {
	for _, folder := range folders {
		if err := w.fsw.Add(folder); err != nil {
			logger.Warn("cannot watch folder", zap.String("folder", folder), zap.Error(err))
			continue
		}
		logger.Info("watching folder", zap.String("folder", folder))
	}
	return nil
}

// Run processes events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
				event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				// Drain a pending fire before resetting, otherwise the
				// stale tick triggers an extra immediate rescan.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			logger.Info("library changed, rescanning")
			w.rescan()
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
