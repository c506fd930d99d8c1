package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

// DefaultDebounce groups the burst of events an editor or export tool emits
// when it saves a file.
const DefaultDebounce = 2 * time.Second

// Watch refreshes after the source file is written, created, or replaced.
// Events within the debounce interval collapse into one refresh.
type Watch struct {
	path      string
	debounce  time.Duration
	refresher Refresher
	logger    *slog.Logger
	clock     clockwork.Clock
}

// NewWatch returns a Watch on path. A non-positive debounce uses DefaultDebounce.
func NewWatch(path string, debounce time.Duration, r Refresher, logger *slog.Logger) *Watch {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watch{
		path:      filepath.Clean(path),
		debounce:  debounce,
		refresher: r,
		logger:    logger.With("trigger", "watch"),
		clock:     clockwork.NewRealClock(),
	}
}

// Run watches until ctx is cancelled. The parent directory is watched so
// that atomic replacements of the file are seen.
func (w *Watch) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.logger.Info("watching source file", "path", w.path, "debounce", w.debounce)

	var (
		timer   clockwork.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.logger.Debug("source file changed", "op", event.Op.String())
			if timer == nil {
				timer = w.clock.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.Chan():
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = timer.Chan()

		case <-pending:
			pending = nil
			fire(ctx, w.refresher, w.logger)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
