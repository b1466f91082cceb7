package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tsdefgen/tsdefgen/internal/errors"
)

// DefaultDebounce collapses the bursts of events editors produce on save.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is called after watched files settle. It receives the changed
// paths, sorted and deduplicated.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher reports changes to a set of files. It watches their directories so
// that editors replacing a file through rename are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	filter   func(string) bool
	debounce time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the settle period.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithFilter additionally reports files in the watched directories for
// which match returns true, e.g. every "*.go" file of a package.
func WithFilter(match func(path string) bool) WatchOption {
	return func(w *Watcher) { w.filter = match }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) WatchOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher watches paths. A directory path watches the files inside it
// that pass the filter.
func NewWatcher(paths []string, opts ...WatchOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]bool),
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
		pending:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "resolve %s", p)
		}
		if isDir(abs) {
			dirs[abs] = true
			continue
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "watch %s", dir)
		}
	}
	return w, nil
}

// Run delivers debounced changes to fn until ctx is done.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	defer w.watcher.Close()
	fire := make(chan []string, 1)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("change detected")
			w.schedule(event.Name, fire)

		case changed := <-fire:
			fn(ctx, changed)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if isBackupFile(abs) {
		return false
	}
	if w.files[abs] {
		return true
	}
	return w.filter != nil && w.filter(abs)
}

func (w *Watcher) schedule(name string, fire chan<- []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	abs, _ := filepath.Abs(name)
	w.pending[abs] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		changed := make([]string, 0, len(w.pending))
		for p := range w.pending {
			changed = append(changed, p)
		}
		w.pending = make(map[string]bool)
		w.mu.Unlock()

		slices.Sort(changed)
		select {
		case fire <- changed:
		default:
			// A batch is already queued; fold these paths back in.
			w.mu.Lock()
			for _, p := range changed {
				w.pending[p] = true
			}
			w.mu.Unlock()
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

func isBackupFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, ".tsdefgen-")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
