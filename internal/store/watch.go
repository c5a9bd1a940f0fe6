package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Watcher reports changes to a single file. Saves go through a temp file and a
// rename, so the parent directory is watched and events are filtered by name.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan struct{}
	stop    chan struct{}
	logger  *zap.Logger
}

func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	return &Watcher{
		path:    filepath.Clean(path),
		watcher: w,
		changes: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		logger:  logger,
	}, nil
}

// Start watches until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	go w.loop(ctx)
	return nil
}

// Changes fires at most once per pending change; bursts collapse.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

func (w *Watcher) Close() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}
