package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// OnChange registers fn to run with the fresh settings after every
// [Store.Update] and whenever [Store.Watch] observes an external edit.
// Must be called before Watch.
func (s *Store) OnChange(fn func(Settings)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Watch reloads the settings file whenever it changes on disk and notifies
// the [Store.OnChange] subscribers. It blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file itself: the store's
// own atomic saves (and most editors) replace the file by rename, which
// would drop a direct file watch.
func (s *Store) Watch(ctx context.Context, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch settings directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if err := s.reload(); err != nil {
				logger.Warn("failed to reload settings", "path", s.path, "error", err)
				continue
			}
			logger.Debug("settings reloaded", "path", s.path)

			s.mu.RLock()
			loaded := s.current.clone()
			subscribers := s.onChange
			s.mu.RUnlock()

			for _, fn := range subscribers {
				fn(loaded)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("settings watcher error", "error", err)
		}
	}
}
