package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/riichi-tools/mjview/internal/logging"
)

// debounceDelay coalesces the burst of write events emitted while the
// game client is still flushing a log file.
const debounceDelay = 500 * time.Millisecond

// Watcher observes one directory and invokes a handler for every
// matching compressed log that is created or modified. Handlers run one
// at a time from the watch goroutine.
type Watcher struct {
	dir     string
	pattern string
	handle  func(path string)
	logger  *logging.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]*time.Timer
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher for dir. Paths whose base name matches pattern
// are passed to handle after the write activity settles.
func New(dir, pattern string, handle func(string), logger *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		dir:     dir,
		pattern: pattern,
		handle:  handle,
		logger:  logger.WithComponent("watch"),
		watcher: fsw,
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.logger.Info().Str("dir", w.dir).Str("pattern", w.pattern).Msg("Watching for new logs")

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop ends the watch and waits for the loop to exit. Pending debounce
// timers are dropped.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			matched, err := filepath.Match(w.pattern, filepath.Base(event.Name))
			if err != nil || !matched {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watch error")
		}
	}
}

// schedule arms (or re-arms) the debounce timer for one path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(debounceDelay)
		return
	}
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case <-w.done:
			return
		default:
		}
		w.handle(path)
	})
}
