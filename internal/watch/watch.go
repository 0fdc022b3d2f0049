// Package watch notifies corectl when its on-disk configuration files
// change, so a running daemon can pick up edits to the bootstrap
// processes file without a restart.
//
// Grounded on the teacher's daemon_watcher.go: an fsnotify.Watcher over
// the file's parent directory (so an editor's replace-via-rename still
// fires an event), filtering to the one path of interest, with a
// polling fallback when fsnotify itself cannot be constructed (e.g. on
// a filesystem without inotify support).
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher calls onChange whenever path is created, written, or
// renamed into place.
type FileWatcher struct {
	path     string
	onChange func()

	watcher      *fsnotify.Watcher
	pollInterval time.Duration
}

// New constructs a FileWatcher for path. If fsnotify cannot be
// constructed (uncommon, but seen on restricted container filesystems),
// Start falls back to polling every pollFallback.
func New(path string, pollFallback time.Duration, onChange func()) (*FileWatcher, error) {
	fw := &FileWatcher{path: path, onChange: onChange, pollInterval: pollFallback}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("watch: fsnotify unavailable (%v), falling back to %v polling", err, pollFallback)
		return fw, nil
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	fw.watcher = w
	return fw, nil
}

// Start begins watching in a background goroutine until ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) {
	if fw.watcher == nil {
		go fw.pollLoop(ctx)
		return
	}
	go fw.eventLoop(ctx)
}

func (fw *FileWatcher) eventLoop(ctx context.Context) {
	defer fw.watcher.Close()
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Name == fw.path && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fw.onChange()
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: fsnotify error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

func (fw *FileWatcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(fw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fw.onChange()
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the underlying fsnotify watcher, if any.
func (fw *FileWatcher) Close() error {
	if fw.watcher == nil {
		return nil
	}
	return fw.watcher.Close()
}
