package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inkwellapp/inkwell-server/internal/markdown"
)

// Debounce defaults. Editors fire several write events while saving; a
// file is only pulled once it has been quiet for the debounce window.
const (
	DefaultDebounce = 2 * time.Second
	defaultPoll     = 500 * time.Millisecond
)

// Watcher monitors the books directory and pulls changed files into the
// catalog. Events are debounced per path; the debounce worker is lazy,
// starting on the first pending path and exiting once the map drains.
// File deletions are deliberately not synced: removing a markdown file
// never removes the book.
type Watcher struct {
	engine   *Engine
	logger   *slog.Logger
	debounce time.Duration
	poll     time.Duration

	// Run-scoped state, swapped out wholesale on each Start. Goroutines
	// receive the instances of their own run as arguments, so a stop
	// racing a restart can only ever tear down the run it belongs to.
	mu            sync.Mutex
	fsw           *fsnotify.Watcher
	pending       map[string]time.Time
	workerRunning bool
	watching      bool
	done          chan struct{}
	wg            *sync.WaitGroup
}

func NewWatcher(engine *Engine, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		engine:   engine,
		logger:   logger.With("component", "watcher"),
		debounce: debounce,
		poll:     defaultPoll,
		pending:  make(map[string]time.Time),
	}
}

// Start begins watching the books directory, creating it if needed.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return nil
	}

	dir := w.engine.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create books directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.fsw = fsw
	w.watching = true
	w.pending = make(map[string]time.Time)
	w.done = make(chan struct{})
	w.wg = &sync.WaitGroup{}
	w.wg.Add(1)
	go w.eventLoop(fsw, w.done, w.wg)

	w.logger.Info("watching books directory", "dir", dir, "debounce", w.debounce)
	return nil
}

// Stop shuts the watcher down and waits for in-flight syncs to finish.
// Pending paths that never reached their quiet window are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = false
	done, fsw, wg := w.done, w.fsw, w.wg
	w.mu.Unlock()

	close(done)
	err := fsw.Close()
	wg.Wait()
	return err
}

// IsWatching reports whether the watcher is running.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) eventLoop(fsw *fsnotify.Watcher, done chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		// Deletions and renames are ignored: the catalog record stays.
		return
	}
	if !isWatchedFile(event.Name) {
		return
	}
	w.mark(event.Name)
}

// mark records activity on a path and ensures the debounce worker is
// running.
func (w *Watcher) mark(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = time.Now()
	if !w.workerRunning {
		w.workerRunning = true
		w.wg.Add(1)
		go w.debounceWorker(w.done, w.wg)
	}
}

// debounceWorker polls the pending map and pulls every path that has been
// quiet for the debounce window. It exits once the map drains; the next
// event starts a fresh worker.
func (w *Watcher) debounceWorker(done chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			w.mu.Lock()
			if w.done == done {
				w.workerRunning = false
			}
			w.mu.Unlock()
			return
		case <-ticker.C:
			for _, path := range w.takeQuiet() {
				w.syncPath(path)
			}

			w.mu.Lock()
			if w.done != done {
				// A restart replaced this run; its own worker owns the
				// fresh pending map.
				w.mu.Unlock()
				return
			}
			if len(w.pending) == 0 {
				w.workerRunning = false
				w.mu.Unlock()
				return
			}
			w.mu.Unlock()
		}
	}
}

// takeQuiet removes and returns the paths whose last event is older than
// the debounce window.
func (w *Watcher) takeQuiet() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var due []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			due = append(due, path)
			delete(w.pending, path)
		}
	}
	return due
}

func (w *Watcher) syncPath(path string) {
	// The file may be gone by the time its window closes.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	book, err := w.engine.PullFromFile(context.Background(), path)
	if err != nil {
		w.logger.Warn("auto-sync failed", "path", path, "error", err)
		return
	}
	w.logger.Info("auto-synced file", "path", path, "book_id", book.ID)
}

// isWatchedFile reports whether a path is a finished book file. Temp
// files from atomic writes and editor-hidden dotfiles are excluded.
func isWatchedFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, markdown.Extension) && !strings.HasSuffix(name, ".tmp")
}
