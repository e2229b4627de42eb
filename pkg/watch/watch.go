// Package watch triggers a reload callback when sweep input files
// change, for rendering sweeps continuously while editing templates.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/parasol-run/parasol/pkg/telemetry"
)

// Watcher watches a set of files and debounces change events into
// reload calls.
type Watcher struct {
	// Debounce collapses a burst of events into one reload.
	Debounce time.Duration

	logger  *telemetry.Logger
	watcher *fsnotify.Watcher
}

// New returns a Watcher with the default half second debounce.
func New(logger *telemetry.Logger) (*Watcher, error) {
	if logger == nil {
		logger = telemetry.FromContext(context.Background())
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	return &Watcher{
		Debounce: 500 * time.Millisecond,
		logger:   logger,
		watcher:  fsw,
	}, nil
}

// Watch starts watching paths and calls reload after changes settle.
// The parent directory of each path is watched, not the file itself, so
// editors that replace files by rename still trigger. Reload runs from
// a single background goroutine; errors it returns are logged and
// watching continues. Watching stops when ctx is done.
func (w *Watcher) Watch(ctx context.Context, paths []string, reload func() error) error {
	watched := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		if err := w.watcher.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}

	go w.processEvents(ctx, watched, reload)

	w.logger.WithField("paths", len(watched)).Debug("watching sweep inputs")
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, watched map[string]struct{}, reload func() error) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := watched[name]; !ok {
				continue
			}
			w.logger.WithField("file", event.Name).Debug("sweep input changed")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.Debounce, func() {
				if err := reload(); err != nil {
					w.logger.WithError(err).Error("reload failed")
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("watcher error")
		}
	}
}
