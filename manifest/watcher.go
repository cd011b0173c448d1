package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/effectus/adaptation/factory"
	"github.com/fsnotify/fsnotify"
)

// Event reports the outcome of applying one manifest file
type Event struct {
	Path      string
	Factories []*factory.Factory
	Err       error
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher logger
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// OnEvent sets a callback invoked after each apply attempt
func OnEvent(fn func(Event)) WatcherOption {
	return func(w *Watcher) {
		w.notify = fn
	}
}

// Watcher applies manifests dropped into a plugin directory. Each file is
// applied at most once, since registrations cannot be withdrawn; a file
// that fails to load or apply is retried on its next write. Files should be
// moved into place atomically.
type Watcher struct {
	dir    string
	target Target
	logger *slog.Logger
	notify func(Event)

	applied map[string]bool
	mu      sync.Mutex
}

// NewWatcher creates a watcher for dir
func NewWatcher(dir string, target Target, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:     dir,
		target:  target,
		logger:  slog.Default().With("component", "adaptation.manifest"),
		applied: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run applies the manifests already in the directory, then every manifest
// created or written there until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create manifest watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	existing, err := ManifestFiles(w.dir)
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.apply(path)
	}

	w.logger.Info("watching manifest directory", "dir", w.dir, "loaded", len(existing))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsManifestFile(event.Name) {
				continue
			}
			w.apply(event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("manifest watcher error", "error", err)
		}
	}
}

// Applied returns the files applied so far, sorted
func (w *Watcher) Applied() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.applied))
	for path := range w.applied {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) apply(path string) {
	w.mu.Lock()
	done := w.applied[path]
	w.mu.Unlock()
	if done {
		return
	}

	m, err := Load(path)
	if err != nil {
		// A later write may complete the file
		w.logger.Warn("failed to load manifest", "path", path, "error", err)
		w.emit(Event{Path: path, Err: err})
		return
	}
	if m.IsEmpty() {
		return
	}

	// A failed apply declares nothing, so the next write retries it
	factories, err := m.Apply(w.target)
	if err != nil {
		w.logger.Warn("failed to apply manifest", "path", path, "error", err)
		w.emit(Event{Path: path, Err: err})
		return
	}

	w.mu.Lock()
	w.applied[path] = true
	w.mu.Unlock()

	w.logger.Info("applied manifest", "path", path, "factories", len(factories))
	w.emit(Event{Path: path, Factories: factories})
}

func (w *Watcher) emit(event Event) {
	if w.notify != nil {
		w.notify(event)
	}
}
