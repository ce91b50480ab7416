// Package watch reports new and changed files below a set of directories.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long events are collected before OnChange runs.
const DefaultDebounce = 750 * time.Millisecond

// ErrNoDirs is returned by Start when none of the directories exist.
var ErrNoDirs = errors.New("no directories to watch")

// Options configures a Watcher.
type Options struct {
	Dirs     []string
	Accept   func(path string) bool // nil accepts every file
	Debounce time.Duration
	OnChange func(paths []string) // Called with the sorted, deduplicated batch
	Logger   *slog.Logger
}

// Watcher watches directory trees and batches file changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	opts     Options
	logger   *slog.Logger
	done     chan struct{}
	mu       sync.Mutex
	running  bool
	pending  map[string]struct{}
	timer    *time.Timer
	watching int
}

// New creates a watcher. Call Start or Run to begin watching.
func New(opts Options) (*Watcher, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Accept == nil {
		opts.Accept = func(string) bool { return true }
	}
	if opts.OnChange == nil {
		opts.OnChange = func([]string) {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher: watcher,
		opts:    opts,
		logger:  opts.Logger,
		done:    make(chan struct{}),
		pending: make(map[string]struct{}),
	}, nil
}

// Start adds every directory tree and begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.opts.Dirs {
		w.addTree(dir)
	}
	if w.Watching() == 0 {
		return ErrNoDirs
	}

	go w.watch()
	return nil
}

// Run starts the watcher and blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

// Watching returns the number of directories being watched.
func (w *Watcher) Watching() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

// addTree watches dir and every directory below it.
// A symlinked root is resolved first, since WalkDir does not follow it.
func (w *Watcher) addTree(root string) {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skipping directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.mu.Lock()
		w.watching++
		w.mu.Unlock()
		return nil
	})
}

// watch is the main watch loop.
func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			w.addTree(event.Name)
		}
		return
	}
	if !info.Mode().IsRegular() || !w.opts.Accept(event.Name) {
		return
	}

	w.logger.Debug("file changed", "path", event.Name)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[event.Name] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.opts.Debounce, w.flush)
	} else {
		w.timer.Reset(w.opts.Debounce)
	}
}

// flush hands the pending batch to OnChange on the timer's goroutine.
func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 || !w.running {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	sort.Strings(paths)
	w.opts.OnChange(paths)
}

// Stop stops the watcher. Pending changes are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	return w.watcher.Close()
}
