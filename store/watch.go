package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 50 * time.Millisecond

// Watcher is implemented by backends that can detect writes made by other
// processes sharing the same storage.
type Watcher interface {
	// Watch blocks until ctx is done, calling publish for every key that
	// changed underneath the backend.
	Watch(ctx context.Context, publish func(Change)) error
}

// Watch forwards external changes from the backend to the hub until ctx is
// done. It returns nil at once if the backend cannot be watched.
func (s *Store) Watch(ctx context.Context) error {
	w, ok := s.backend.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, s.hub.Publish)
}

// Watch watches the directory holding the store file, since atomic renames
// replace the file's inode and would drop a watch placed on the file itself.
func (f *FileBackend) Watch(ctx context.Context, publish func(Change)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(f.filePath)
	f.log.Debug("watching store file", zap.String("path", target))

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("store watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			changes, err := f.reload()
			if err != nil {
				if errors.Is(err, ErrClosed) {
					return nil
				}
				f.log.Warn("store reload failed, keeping current values", zap.Error(err))
				continue
			}
			for _, c := range changes {
				publish(c)
			}
		}
	}
}
