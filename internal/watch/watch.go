// Package watch reports changes to the record files under a data root.
//
// The watcher follows the data layout: the root itself, policies/, each
// city directory below it, and parks/. Directories created while running
// are picked up. Only record files (.yaml, .yml) and data directories
// appearing or disappearing count as changes. Bursts of changes, such as an editor
// saving several files or a git checkout, are coalesced into a single
// callback.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/opcmap/policymap/pkg/errors"
	"github.com/opcmap/policymap/pkg/record"
	"github.com/opcmap/policymap/pkg/store"
)

// DefaultDebounce is how long the tree must be quiet before a change is
// reported.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is called once per settled burst with the changed paths,
// relative to the data root and sorted.
type ChangeFunc func(ctx context.Context, changed []string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger used for watch events.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher watches a data root.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *log.Logger
	fsw      *fsnotify.Watcher

	mu        sync.Mutex
	pending   map[string]struct{}
	lastEvent time.Time
}

// New creates a watcher for root. It does not start watching until Run.
func New(root string, opts ...Option) (*Watcher, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataDirNotFound, err, "watch %s", root)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		logger:   log.Default(),
		fsw:      fsw,
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled, calling fn after each settled burst
// of changes. fn runs on the watch goroutine; events arriving while it runs
// are queued for the next burst. Run closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	defer w.fsw.Close()

	w.addTree(w.root)
	w.logger.Debug("Watching data root", "root", w.root, "dirs", len(w.fsw.WatchList()))

	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "err", err)

		case <-ticker.C:
			if changed := w.settled(); len(changed) > 0 {
				w.logger.Debug("Data changed", "files", len(changed))
				fn(ctx, changed)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if d := w.depth(event.Name); d > 0 && d <= 2 {
				w.addTree(event.Name)
				w.mark(event.Name)
			}
			return
		}
	}

	// Moving or deleting a directory reports only the directory itself.
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		if d := w.depth(event.Name); d > 0 && !record.IsDataFile(event.Name) {
			w.logger.Debug("Directory event", "op", event.Op.String(), "dir", w.rel(event.Name))
			w.mark(event.Name)
			return
		}
	}

	if !record.IsDataFile(event.Name) {
		return
	}
	w.logger.Debug("Record file event", "op", event.Op.String(), "file", w.rel(event.Name))
	w.mark(event.Name)
}

func (w *Watcher) mark(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[w.rel(path)] = struct{}{}
	w.lastEvent = time.Now()
}

// settled drains the pending set once no event has arrived for the debounce
// period.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 || time.Since(w.lastEvent) < w.debounce {
		return nil
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	sort.Strings(changed)
	w.pending = make(map[string]struct{})
	return changed
}

// addTree watches dir and the data directories beneath it, down to the city
// level. Failures are logged; a directory that cannot be watched is skipped.
func (w *Watcher) addTree(dir string) {
	depth := w.depth(dir)
	if depth < 0 || depth > 2 {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn("Cannot watch directory", "dir", w.rel(dir), "err", err)
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addTree(filepath.Join(dir, e.Name()))
		}
	}
}

// depth is 0 for the root, 1 for policies/ and parks/, 2 for city
// directories, and -1 for anything outside the data layout.
func (w *Watcher) depth(dir string) int {
	rel := w.rel(dir)
	if rel == "." {
		return 0
	}
	first, rest, nested := strings.Cut(rel, "/")
	switch {
	case first != store.PoliciesDir && first != store.ParksDir:
		return -1
	case !nested:
		return 1
	case first == store.PoliciesDir && !strings.Contains(rest, "/"):
		return 2
	}
	return -1
}

func (w *Watcher) rel(path string) string {
	r, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}
