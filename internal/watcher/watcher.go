// Package watcher reports batches of changed source files.
package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of file system change.
type Op string

const (
	Create Op = "create"
	Write  Op = "write"
	Remove Op = "remove"
	Rename Op = "rename"
)

// Event is a change to one file.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 150 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Paths are directory trees or single files. For a file, its directory
	// is watched but only events for the file itself are reported.
	Paths  []string
	Ignore *Ignore
	// Accept filters the files events are reported for. Nil accepts all.
	Accept func(path string) bool
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher watches directory trees and emits debounced batches of events.
type Watcher struct {
	opts   Options
	logger *slog.Logger
	fsw    *fsnotify.Watcher
	mu     sync.Mutex
	closed bool

	// trees are the directories watched as part of a tree; fileDirs are
	// watched only for the named files in them.
	trees    map[string]bool
	fileDirs map[string]bool
	files    map[string]bool
}

// New creates a watcher. Nothing is watched until Start.
func New(opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{
		opts:     opts,
		logger:   logger,
		trees:    make(map[string]bool),
		fileDirs: make(map[string]bool),
		files:    make(map[string]bool),
	}
}

// Start registers the configured trees and returns a channel of batches.
// Each batch holds the last event per path, sorted by path. The channel is
// closed when ctx is done or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) (<-chan []Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	for _, root := range w.opts.Paths {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	out := make(chan []Event)
	go w.loop(ctx, fsw, out)
	return out, nil
}

// Close shuts down the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		file := filepath.Clean(root)
		dir := filepath.Dir(file)
		w.files[file] = true
		w.fileDirs[dir] = true
		return w.fsw.Add(dir)
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.opts.Ignore.Match(path, true) {
			return filepath.SkipDir
		}
		w.trees[filepath.Clean(path)] = true
		return w.fsw.Add(path)
	})
}

func (w *Watcher) accept(path string) bool {
	// Named files are reported even when ignored.
	path = filepath.Clean(path)
	if !w.files[path] {
		if dir := filepath.Dir(path); w.fileDirs[dir] && !w.trees[dir] {
			return false
		}
		if w.opts.Ignore.Match(path, false) {
			return false
		}
	}
	return w.opts.Accept == nil || w.opts.Accept(path)
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- []Event) {
	defer close(out)

	pending := make(map[string]Event)
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case fe, ok := <-fsw.Events:
			if !ok {
				return
			}
			op, valid := convertOp(fe.Op)
			if !valid {
				continue
			}
			if op == Create {
				if info, err := os.Stat(fe.Name); err == nil && info.IsDir() {
					if w.trees[filepath.Dir(filepath.Clean(fe.Name))] && !w.opts.Ignore.Match(fe.Name, true) {
						_ = w.addRecursive(fe.Name)
					}
					continue
				}
			}
			if !w.accept(fe.Name) {
				continue
			}
			pending[fe.Name] = Event{Path: fe.Name, Op: op, Time: time.Now()}
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]Event, 0, len(pending))
			for _, e := range pending {
				batch = append(batch, e)
			}
			slices.SortFunc(batch, func(a, b Event) int { return strings.Compare(a.Path, b.Path) })
			pending = make(map[string]Event)
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func convertOp(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Create, true
	case op.Has(fsnotify.Write):
		return Write, true
	case op.Has(fsnotify.Remove):
		return Remove, true
	case op.Has(fsnotify.Rename):
		return Rename, true
	default:
		return "", false
	}
}
