package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce collapses bursts of file events into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a catalog when matching files in a directory change.
type Watcher struct {
	svc      Service
	dir      string
	pattern  string
	debounce time.Duration
	onReload func()

	fs *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// WatcherOptions tunes a Watcher.
type WatcherOptions struct {
	// Debounce is the quiet period before reloading. Zero means DefaultDebounce.
	Debounce time.Duration
	// OnReload is called each time the watcher starts a reload.
	OnReload func()
}

// NewWatcher starts watching dir. Call Run to process events.
func NewWatcher(svc Service, dir, pattern string, opts WatcherOptions) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		svc:      svc,
		dir:      dir,
		pattern:  pattern,
		debounce: debounce,
		onReload: opts.OnReload,
		fs:       fsw,
	}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	defer w.stopTimer()

	log.Info().Str("dir", w.dir).Str("pattern", w.pattern).Msg("Watching data directory")

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug().Str("file", event.Name).Str("operation", event.Op.String()).Msg("Measurement file changed")
			w.schedule(ctx)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("File watcher error")

		case <-ctx.Done():
			log.Info().Msg("Stopping data directory watcher")
			return nil
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	ok, _ := filepath.Match(w.pattern, filepath.Base(event.Name))
	return ok
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if w.onReload != nil {
			w.onReload()
		}
		if _, err := w.svc.Reload(ctx); err != nil {
			log.Error().Err(err).Msg("Reload after file change failed")
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
