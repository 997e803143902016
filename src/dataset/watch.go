package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iafilius/DeathTrajectories/src/logging"
)

// DefaultDebounce collapses the bursts of events a single save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a CSV file after it changes on disk and hands every
// successfully parsed Dataset to onLoad. Files that fail to load are logged
// and skipped, so the previous Dataset stays in use.
type Watcher struct {
	path     string
	debounce time.Duration
	onLoad   func(*Dataset)
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching the directory holding path; editors that save by
// renaming a temp file over the original are covered that way.
func NewWatcher(path string, debounce time.Duration, onLoad func(*Dataset)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{path: filepath.Clean(abs), debounce: debounce, onLoad: onLoad, fsw: fsw}, nil
}

// Run processes events until ctx is cancelled, then releases the watch.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logging.Debugf("[watch] %s %s", ev.Op, ev.Name)
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("[watch] %s: %v", w.path, err)
		case <-timer.C:
			ds, err := Load(w.path)
			if err != nil {
				logging.Warnf("[watch] reload skipped: %v", err)
				continue
			}
			logging.Infof("[watch] reloaded %s (%d records)", w.path, ds.Len())
			if w.onLoad != nil {
				w.onLoad(ds)
			}
		}
	}
}
