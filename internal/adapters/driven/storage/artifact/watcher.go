package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/swiftvisa/visarag/internal/logger"
)

// Watcher calls back when the CURRENT pointer of a store changes.
//
// CURRENT is replaced by rename, so the store root is watched rather than
// the file itself.
type Watcher struct {
	store     *Store
	watcher   *fsnotify.Watcher
	mu        sync.Mutex
	callbacks []func(id string)
	last      string
	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher creates a watcher for the store. Call Start to begin.
func NewWatcher(store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(store.Root()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", store.Root(), err)
	}
	last, _ := store.Current()
	return &Watcher{store: store, watcher: fsw, last: last, done: make(chan struct{})}, nil
}

// OnChange registers a callback invoked with the new build id.
func (w *Watcher) OnChange(callback func(id string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start processes events until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer w.Close()
		current := filepath.Clean(w.store.CurrentPath())
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != current {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				w.check()
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Store watcher error: %v", err)
			}
		}
	}()
}

// check reads CURRENT and notifies callbacks if it names a new build.
func (w *Watcher) check() {
	id, err := w.store.Current()
	if err != nil {
		logger.Debug("CURRENT not readable yet: %v", err)
		return
	}

	w.mu.Lock()
	if id == w.last {
		w.mu.Unlock()
		return
	}
	w.last = id
	callbacks := make([]func(string), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	logger.Info("Current build changed to %s", id)
	for _, cb := range callbacks {
		if cb != nil {
			cb(id)
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		if cerr := w.watcher.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
	})
	return err
}
