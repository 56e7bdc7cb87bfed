// Package watch triggers tag regeneration when project sources change.
//
// A Watcher observes the project's source directories with fsnotify and
// debounces bursts of events (editor saves, branch switches) into a single
// regeneration call. The scratch directory and hidden directories are never
// watched, so the extraction step cannot retrigger the watcher.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"deptags/internal/generator"
	"deptags/internal/logging"
)

// DefaultDebounce is how long the watcher waits after the last event
// before triggering a regeneration.
const DefaultDebounce = 2 * time.Second

// Options configures a Watcher.
type Options struct {
	// Dirs are the directories to watch recursively. Missing directories
	// are skipped.
	Dirs []string

	// SkipDir reports whether a directory (by absolute path) should not be
	// watched. Hidden directories are always skipped in addition.
	SkipDir func(path string) bool

	// Match reports whether a changed file is interesting. A nil Match
	// accepts every file.
	Match func(name string) bool

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
}

// Watcher debounces filesystem events into regeneration triggers.
type Watcher struct {
	fw       *fsnotify.Watcher
	opts     Options
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending bool
	lastEvt time.Time
}

// New creates a watcher over the given directories. Call Run to start it.
func New(opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fw:       fw,
		opts:     opts,
		debounce: debounce,
		log:      logging.New("watch"),
	}

	for _, dir := range opts.Dirs {
		if err := w.addRecursive(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

// Run blocks, invoking fn after each debounced burst of changes, until ctx
// is cancelled. A fn returning ErrGenerationInProgress is logged and the
// burst stays pending so the change is picked up on the next tick.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-ticker.C:
			if !w.takeDue() {
				continue
			}
			if err := fn(ctx); err != nil {
				if errors.Is(err, generator.ErrGenerationInProgress) {
					w.log.Debug("regeneration already running, keeping change pending")
					w.markPending()
					continue
				}
				w.log.Error("regeneration failed", "error", err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(event.Name)
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if w.opts.Match != nil && !w.opts.Match(event.Name) {
		return
	}

	w.markPending()
}

func (w *Watcher) markPending() {
	w.mu.Lock()
	w.pending = true
	w.lastEvt = time.Now()
	w.mu.Unlock()
}

// takeDue reports whether a pending burst has settled past the debounce
// window, clearing it when so.
func (w *Watcher) takeDue() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending || time.Since(w.lastEvt) < w.debounce {
		return false
	}
	w.pending = false
	return true
}

// addRecursive watches dir and every subdirectory that is not skipped.
// A missing dir is not an error: source layouts often omit directories.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			w.log.Debug("cannot watch directory", "dir", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) skipDir(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && base != "." && base != ".." {
		return true
	}
	return w.opts.SkipDir != nil && w.opts.SkipDir(path)
}
