package cache

import (
	"context"
	"os"
	"path/filepath"

	"vinylfm/logger"
	"vinylfm/repository"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates the cache when the library document file changes on
// disk, so edits by another process (or another instance sharing the
// directory) become visible without a restart. It only applies to the file
// driver; the redis driver has no file to watch.
type Watcher struct {
	watcher  *fsnotify.Watcher
	cache    *LibraryCache
	onChange func()
}

// NewWatcher watches the library base directory for writes to the document
// file. onChange, if non-nil, runs after each invalidation.
func NewWatcher(baseDir string, cache *LibraryCache, onChange func()) (*Watcher, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(baseDir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return &Watcher{watcher: fsWatcher, cache: cache, onChange: onChange}, nil
}

// Run processes events until the context is cancelled. Our own saves also
// land here; the extra invalidation just makes the next read go through
// the store again.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Base(event.Name) != repository.LibraryFileName {
				continue
			}
			logger.Debug("library file changed", logger.String("file", event.Name))
			w.cache.Invalidate()
			if w.onChange != nil {
				w.onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("library watcher error", logger.ErrorField(err))
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
