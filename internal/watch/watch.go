// Package watch implements the watch-mode driver of spec.md §5: a debounced
// filesystem watcher that folds a burst of edits into a single re-analysis
// run.
package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"tscircular/internal/discovery"
	"tscircular/internal/shared/observability"
	"tscircular/internal/shared/util"
)

// DefaultDebounce is the quiet period after the last observed change before
// a run is triggered.
const DefaultDebounce = 300 * time.Millisecond

// eventLogRate caps how many per-event debug lines the watcher emits per
// second; a rename storm (e.g. a branch switch touching thousands of files)
// must not flood the log even though every event still reaches scheduleRun.
const eventLogRate = 5

// Watcher watches a root directory tree for changes to source files and
// invokes onChange with the coalesced set of changed paths once no further
// changes arrive within the debounce window.
type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration
	excludeDirs []glob.Glob
	onChange    func([]string)
	callbackMu  sync.Mutex
	logLimiter  *util.Limiter

	pending   map[string]bool
	pendingMu sync.Mutex
	timer     *time.Timer
}

// New creates a watcher applying the same exclude glob patterns used by file
// discovery, invoking onChange after each debounced burst of file events.
// Watching starts when Watch is called with a root directory.
func New(debounce time.Duration, exclude []string, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	compiled := make([]glob.Glob, 0, len(exclude))
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:   fsw,
		debounce:    debounce,
		excludeDirs: compiled,
		onChange:    onChange,
		logLimiter:  util.NewLimiter(eventLogRate, eventLogRate),
		pending:     make(map[string]bool),
	}, nil
}

// Watch begins watching root and its subdirectories, and starts the event
// loop in a background goroutine.
func (w *Watcher) Watch(root string) error {
	if err := w.watchRecursive(root); err != nil {
		return err
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}

			if !w.isRelevantFile(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				if w.logLimiter.Allow(1) {
					slog.Debug("watch: file changed", "path", event.Name, "op", event.Op.String())
				}
				w.scheduleRun(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleRun(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if w.timer != nil {
		observability.WatcherRunsCoalescedTotal.Inc()
		w.timer.Stop()
	}
	w.pending[path] = true
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.timer = nil
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, g := range w.excludeDirs {
		if g.Match(base) || g.Match(path) {
			return true
		}
	}
	return false
}

func (w *Watcher) isRelevantFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range discovery.Extensions {
		if e == ext {
			supported = true
			break
		}
	}
	if !supported {
		return false
	}
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) || g.Match(path) {
			return false
		}
	}
	return true
}

// Close stops the underlying filesystem watcher and any pending debounce
// timer.
func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
