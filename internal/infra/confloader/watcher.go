package confloader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches configuration files and directories for changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	handlers []watchHandler
	pending  map[string]*time.Timer
}

type watchHandler struct {
	dir  string
	name string // empty matches every entry of dir
	fn   func(path string)
}

func (h watchHandler) matches(path string) bool {
	if filepath.Dir(path) != h.dir {
		return false
	}
	return h.name == "" || filepath.Base(path) == h.name
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets how long a path must stay quiet before its handler
// runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a new watcher. Nothing is delivered until Run.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("confloader: create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WatchFile calls fn after path is written, created or replaced. The
// parent directory is watched so editors that save by rename are seen.
func (w *Watcher) WatchFile(path string, fn func(path string)) error {
	path = filepath.Clean(path)
	return w.add(watchHandler{dir: filepath.Dir(path), name: filepath.Base(path), fn: fn})
}

// WatchDir calls fn with the path of any entry of dir that is created,
// written, removed or renamed.
func (w *Watcher) WatchDir(dir string, fn func(path string)) error {
	return w.add(watchHandler{dir: filepath.Clean(dir), fn: fn})
}

func (w *Watcher) add(h watchHandler) error {
	if err := w.watcher.Add(h.dir); err != nil {
		return fmt.Errorf("confloader: watch %s: %w", h.dir, err)
	}

	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()

	w.logger.Debug("watching for changes", "dir", h.dir, "file", h.name)
	return nil
}

// Run delivers changes until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// schedule (re)starts the debounce timer of path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() { w.fire(path) })
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	var fns []func(string)
	for _, h := range w.handlers {
		if h.matches(path) {
			fns = append(fns, h.fn)
		}
	}
	w.mu.Unlock()

	for _, fn := range fns {
		w.logger.Debug("watched path changed", "path", path)
		fn(path)
	}
}

func (w *Watcher) close() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("failed to close file watcher", "error", err)
	}
}
