package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/swiftvisa/visarag/internal/logger"
)

// DefaultDebounce is how long the corpus must be quiet before a change is
// reported.
const DefaultDebounce = 2 * time.Second

// Watch reports corpus changes under root until ctx is cancelled.
// Bursts of events within debounce collapse into one signal. New
// subdirectories are watched as they appear. The channel is closed when
// watching stops.
func (l *Loader) Watch(ctx context.Context, root string, debounce time.Duration) (<-chan struct{}, error) {
	if err := l.Validate(ctx, root); err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := addTree(w, root); err != nil {
		w.Close()
		return nil, err
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer w.Close()

		timer := time.NewTimer(debounce)
		timer.Stop()
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !l.relevant(event) {
					continue
				}
				if event.Has(fsnotify.Create) {
					if err := addTree(w, event.Name); err != nil {
						logger.Debug("Not watching %s: %v", event.Name, err)
					}
				}
				timer.Reset(debounce)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("Corpus watcher error: %v", err)

			case <-timer.C:
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()
	return changes, nil
}

// relevant filters out hidden paths, attribute changes and files the loader
// would not pick up anyway.
func (l *Loader) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if isHidden(filepath.Base(event.Name)) {
		return false
	}
	ext := filepath.Ext(event.Name)
	if ext == "" || len(l.extensions) == 0 {
		return true
	}
	return l.extensions[strings.ToLower(ext)]
}

// addTree watches dir and every visible directory below it. Paths that are
// not directories are ignored.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
