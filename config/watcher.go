package config

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vireo-stream/hostcore/errors"
)

// ReloadCallback is invoked with the freshly reloaded settings map whenever
// general.json changes on disk outside of Store.Replace/Reset.
type ReloadCallback func(map[string]interface{})

// Watcher watches a Store's backing file for operator hand-edits and
// notifies registered callbacks, suppressing the notification for the
// store's own writes.
type Watcher struct {
	store     *Store
	fsWatcher *fsnotify.Watcher

	mu             sync.Mutex
	callbacks      []ReloadCallback
	debounce       *time.Timer
	debouncePeriod time.Duration
	ownWrite       bool
}

// Watch starts watching the store's file for changes. Call Close when done.
func (s *Store) Watch() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fw.Add(s.path); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "watch %s", s.path)
	}

	w := &Watcher{store: s, fsWatcher: fw, debouncePeriod: 500 * time.Millisecond}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	go w.loop()
	return w, nil
}

// OnReload registers a callback fired after an externally-triggered reload.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// markOwnWrite suppresses the next reload notification; Store calls this
// around its own saves so a self-triggered fsnotify event doesn't reload.
func (w *Watcher) markOwnWrite() {
	w.mu.Lock()
	w.ownWrite = true
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()
		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debouncePeriod, w.fireReload)
}

func (w *Watcher) fireReload() {
	w.mu.Lock()
	if w.ownWrite {
		w.ownWrite = false
		w.mu.Unlock()
		return
	}
	callbacks := append([]ReloadCallback(nil), w.callbacks...)
	w.mu.Unlock()

	raw, err := os.ReadFile(w.store.path)
	if err != nil {
		return
	}
	var loaded map[string]interface{}
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return
	}

	w.store.mu.Lock()
	w.store.data = loaded
	w.store.mu.Unlock()

	for _, cb := range callbacks {
		cb(loaded)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
