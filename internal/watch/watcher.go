// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/riglabs/rig/internal/logging"

	charmlog "github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce applies when Options.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// clearScreen is the ANSI sequence for "erase display, cursor home".
const clearScreen = "\033[2J\033[H"

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watcher already running")
	// ErrResourcesExhausted wraps fsnotify errors after which no further
	// events can be delivered.
	ErrResourcesExhausted = errors.New("file watching resources exhausted")
)

type (
	// ChangeFunc receives the sorted, de-duplicated paths that changed,
	// relative to the watch root. A returned error is logged; watching
	// continues.
	ChangeFunc func(ctx context.Context, changed []string) error

	// Options configures a Watcher.
	Options struct {
		// Dir is the watch root. Empty means the working directory.
		Dir      string
		Patterns []string
		Ignore   []string
		Debounce time.Duration
		// ClearScreen writes an ANSI clear sequence to Out before each run.
		ClearScreen bool
		Out         io.Writer
		Logger      *charmlog.Logger
		OnChange    ChangeFunc
	}

	// Watcher watches a directory tree. Run may be called once.
	Watcher struct {
		opts    Options
		root    string
		filter  *Filter
		fsw     *fsnotify.Watcher
		log     *charmlog.Logger
		started atomic.Bool
	}
)

// New validates opts and registers the directory tree.
func New(opts Options) (*Watcher, error) {
	filter, err := NewFilter(opts.Patterns, opts.Ignore)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{opts: opts, root: root, filter: filter, fsw: fsw, log: logger}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watch root.
func (w *Watcher) Root() string { return w.root }

// Run delivers batches to OnChange until ctx is done, returning nil then. A
// resource-exhaustion error from the platform ends the run early.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.log.Warn("close file watcher", "err", err)
		}
	}()

	b := newBatcher(w.opts.Debounce, w.deliver)
	defer b.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("file watcher closed its event channel")
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.addIfDir(ev.Name, rel)
			}
			if !w.filter.Match(rel) {
				continue
			}
			w.log.Debug("change", "path", rel, "op", ev.Op.String())
			b.add(ctx, rel)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("file watcher closed its error channel")
			}
			if exhausted(err) {
				return fmt.Errorf("%w: %w", ErrResourcesExhausted, err)
			}
			w.log.Warn("file watcher error", "err", err)
		}
	}
}

func (w *Watcher) deliver(ctx context.Context, changed []string) {
	if w.opts.ClearScreen {
		fmt.Fprint(w.opts.Out, clearScreen)
	}
	if w.opts.OnChange == nil {
		return
	}
	if err := w.opts.OnChange(ctx, changed); err != nil {
		w.log.Error("run after change failed", "err", err)
	}
}

// addTree registers dir and every non-skipped directory below it.
// Unreadable directories are logged and left out.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("not watching", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil || w.filter.SkipDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) addIfDir(path, rel string) {
	if w.filter.SkipDir(rel) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.log.Warn("watch new directory", "path", rel, "err", err)
	}
}
