// Package watcher hands newly arrived documents in the input directory to a
// callback. Rapid successive writes to the same file are debounced so a
// document is only processed once its writer has gone quiet.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ginjaninja78/cdata-enricher/pkg/utils"
	"go.uber.org/zap"
)

// Handler is called once per settled file.
type Handler func(ctx context.Context, path string)

// Watcher watches one directory for files matching a glob pattern.
type Watcher struct {
	dir      string
	pattern  string
	debounce time.Duration
	handle   Handler
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher for dir. A zero debounce defaults to 500ms.
func New(dir, pattern string, debounce time.Duration, handle Handler, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		pattern:  pattern,
		debounce: debounce,
		handle:   handle,
		logger:   logger,
		pending:  make(map[string]time.Time),
	}
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching input directory", zap.String("dir", w.dir), zap.String("pattern", w.pattern))

	tick := time.NewTicker(w.debounce / 4)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.observe(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))

		case now := <-tick.C:
			for _, path := range w.settled(now) {
				w.handle(ctx, path)
			}
		}
	}
}

// observe records create and write events for matching files.
func (w *Watcher) observe(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !utils.Matches(w.pattern, event.Name) {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
	w.logger.Debug("File event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
}

// settled removes and returns files that have been quiet for the debounce
// period. Files that disappeared meanwhile are dropped.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		delete(w.pending, path)
		if utils.FileExists(path) {
			ready = append(ready, path)
		}
	}
	return ready
}
