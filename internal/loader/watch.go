package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// WatchConfig configures a Watcher.
type WatchConfig struct {
	// Path is a deck file or a directory of deck files.
	Path string

	// Debounce is the quiet period after the last change before onChange
	// runs. Default: 100ms (DefaultDebounce)
	Debounce time.Duration

	// Extensions filters events by file extension. Default: Extensions
	Extensions []string
}

// Watcher reloads deck documents when they change on disk.
//
// Bursts of events (editors commonly write, rename and chmod in quick
// succession) collapse into a single callback.
type Watcher struct {
	fsw      *fsnotify.Watcher
	cfg      WatchConfig
	logger   *slog.Logger
	debounce *debouncer

	// file is set when Path names a single file; its directory is watched
	// so that rename-replace saves are seen.
	file string

	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher creates a watcher for cfg.Path. A nil logger uses
// slog.Default().
func NewWatcher(cfg WatchConfig, logger *slog.Logger) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = Extensions
	}
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", cfg.Path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		cfg:      cfg,
		logger:   logger,
		debounce: newDebouncer(cfg.Debounce),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if !info.IsDir() {
		w.file = filepath.Clean(cfg.Path)
	}
	return w, nil
}

// Watch blocks, calling onChange with the changed file's path after each
// settled burst of changes, until ctx is cancelled or Stop is called.
// Errors returned by onChange are logged; watching continues.
func (w *Watcher) Watch(ctx context.Context, onChange func(path string) error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer close(w.doneCh)

	if err := w.addPaths(); err != nil {
		return err
	}

	w.logger.Info("watching deck files",
		"event", "watch_started",
		"path", w.cfg.Path,
		"debounce_ms", w.cfg.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped", "event", "watch_stopped", "reason", "context")
			return nil

		case <-w.stopCh:
			w.logger.Info("watcher stopped", "event", "watch_stopped", "reason", "stop")
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(ev) {
				continue
			}

			w.logger.Debug("deck file event", "path", ev.Name, "op", ev.Op.String())

			target := ev.Name
			if w.file != "" {
				target = w.file
			}
			w.debounce.Trigger(func() {
				w.logger.Info("reloading deck", "event", "deck_reload", "path", target)
				if err := onChange(target); err != nil {
					w.logger.Error("deck reload failed", "event", "deck_reload_failed", "path", target, "error", err)
				}
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// Stop ends Watch, cancels any pending callback and releases the
// underlying watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)

		w.mu.Lock()
		running := w.running
		w.mu.Unlock()
		if running {
			<-w.doneCh
		}

		w.debounce.Stop()
		if cerr := w.fsw.Close(); cerr != nil {
			err = fmt.Errorf("close watcher: %w", cerr)
		}
	})
	return err
}

func (w *Watcher) addPaths() error {
	if w.file != "" {
		return w.fsw.Add(filepath.Dir(w.file))
	}

	return filepath.WalkDir(w.cfg.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.cfg.Path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch directory %q: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if w.file != "" {
		return filepath.Clean(ev.Name) == w.file
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	return slices.Contains(w.cfg.Extensions, strings.ToLower(filepath.Ext(ev.Name)))
}

// debouncer runs the most recently triggered callback once no new trigger
// has arrived for interval.
type debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	fn      func()
	stopped bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

// Trigger replaces the pending callback with fn and restarts the quiet period.
func (d *debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.fn = fn
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	fn := d.fn
	d.fn = nil
	stopped := d.stopped
	d.mu.Unlock()

	if fn != nil && !stopped {
		fn()
	}
}

// Stop cancels any pending callback; later triggers are ignored.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.fn = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
