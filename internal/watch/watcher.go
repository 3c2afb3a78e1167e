// Package watch reloads the manifest when its file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/logging"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// ReloadFunc rebuilds whatever depends on the watched file.
type ReloadFunc func(ctx context.Context) error

// Stats counts watcher activity.
type Stats struct {
	Events   int
	Reloads  int
	Failures int
	LastPath string
	LastOp   string
}

// Watcher calls a ReloadFunc after the watched file settles. It watches the
// parent directory so editors that save by rename are still seen.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	dir      string
	reload   ReloadFunc
	debounce time.Duration
	log      *zap.Logger
	stats    Stats
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Watcher for the file at path.
func New(path string, reload ReloadFunc, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	return &Watcher{
		watcher:  fw,
		path:     abs,
		dir:      filepath.Dir(abs),
		reload:   reload,
		debounce: DefaultDebounce,
		log:      logging.OrNop(logger).Named("watch"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce changes the settle delay. Call it before Start.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.log.Info("watching manifest", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		w.log.Warn("closing watcher", zap.Error(err))
	}
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.stats.LastPath = event.Name
			w.stats.LastOp = event.Op.String()
			w.mu.Unlock()
			w.log.Debug("manifest event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			w.fire(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func (w *Watcher) fire(ctx context.Context) {
	err := w.reload(ctx)

	w.mu.Lock()
	if err != nil {
		w.stats.Failures++
	} else {
		w.stats.Reloads++
	}
	w.mu.Unlock()

	if err != nil {
		w.log.Warn("manifest reload failed", zap.Error(err))
		return
	}
	w.log.Info("manifest reloaded", zap.String("path", w.path))
}
