// Package procwatch watches the process registry file
// (pkg/procregistry.DefaultPath) for external mutation, so a long-lived
// reader (a status TUI, a `graft status --watch`-style front end) can
// invalidate a cached listing instead of polling. It is an optional
// observer: pkg/procregistry's own Register/Deregister/List never depend on
// it, and a caller who never constructs a Watcher sees no behavior change.
//
// Grounded on pkg/cli/compile_watch.go's fsnotify.NewBufferedWatcher +
// debounce pattern, narrowed to a single file instead of a directory tree.
package procwatch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/graft-dev/graft/pkg/logger"
)

var watchLog = logger.New("procwatch:procwatch")

// debounceDelay coalesces bursts of writes (e.g. several processes
// registering/deregistering in quick succession) into one invalidation.
const debounceDelay = 100 * time.Millisecond

// Watcher notifies on Changed whenever the watched registry file is
// written, created, or removed, debounced by debounceDelay.
type Watcher struct {
	fsw     *fsnotify.Watcher
	Changed chan struct{}
	done    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New starts watching path's parent directory (the registry file itself may
// not exist yet between process exits) and returns a Watcher. Call Close to
// release the underlying fsnotify watcher.
func New(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewBufferedWatcher(32)
	if err != nil {
		return nil, fmt.Errorf("procwatch: create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("procwatch: watch %s: %w", dir, err)
	}

	w := &Watcher{fsw: fsw, Changed: make(chan struct{}, 1), done: make(chan struct{})}
	go w.loop(path)
	return w, nil
}

func (w *Watcher) loop(path string) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.scheduleNotify()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			watchLog.Printf("watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleNotify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, func() {
		select {
		case w.Changed <- struct{}{}:
		default:
			// A notification is already pending; the reader hasn't drained it yet.
		}
	})
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
