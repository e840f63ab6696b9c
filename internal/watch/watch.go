package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher calls back when a single file changes. Bursts of events within
// the debounce window collapse into one call.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *logrus.Logger
}

func New(path string, debounce time.Duration, logger *logrus.Logger) *Watcher {
	return &Watcher{path: filepath.Clean(path), debounce: debounce, logger: logger}
}

// Run blocks until ctx is done, calling onChange after each settled change
// to the watched file. Errors from onChange are logged and watching
// continues.
//
// The parent directory is watched, so renames onto the path count as
// changes.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.WithField("path", w.path).Info("File watcher started")

	// nil until a change is pending
	var settled <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("File watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.WithFields(logrus.Fields{
				"path": event.Name,
				"op":   event.Op.String(),
			}).Debug("Library file changed")
			settled = time.After(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Error("File watcher error")

		case <-settled:
			settled = nil
			if err := onChange(ctx); err != nil {
				w.logger.WithError(err).Error("Change handler failed")
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
