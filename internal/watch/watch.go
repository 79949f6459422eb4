// Package watch triggers report regeneration when the message
// store file changes on disk.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher observes a store file (and its WAL/SHM siblings) and
// invokes a callback after changes settle for the debounce period.
type Watcher struct {
	target   string // store file path, cleaned
	onChange func()
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	lastSeen time.Time
	dirty    bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// New creates a watcher for the store at path. The containing
// directory is watched rather than the file itself so rewrites and
// WAL churn are all observed.
func New(
	path string, debounce time.Duration,
	log zerolog.Logger, onChange func(),
) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		target:   filepath.Clean(path),
		onChange: onChange,
		watcher:  fsw,
		debounce: debounce,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}, nil
}

// Start begins processing events in a goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")

		case <-ticker.C:
			w.flush()
		}
	}
}

// relevant reports whether an event path belongs to the store:
// the file itself or a -wal/-shm sibling.
func (w *Watcher) relevant(path string) bool {
	p := filepath.Clean(path)
	return p == w.target ||
		p == w.target+"-wal" ||
		p == w.target+"-shm"
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !w.relevant(event.Name) {
		return
	}
	w.mu.Lock()
	w.dirty = true
	w.lastSeen = w.now()
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	ready := w.dirty && w.now().Sub(w.lastSeen) >= w.debounce
	if ready {
		w.dirty = false
	}
	w.mu.Unlock()

	if ready {
		w.log.Info().Str("store", w.target).
			Msg("store changed, regenerating report")
		w.onChange()
	}
}
