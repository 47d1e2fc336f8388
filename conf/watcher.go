package conf

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/voltmesh/gridx/errors"
	"github.com/voltmesh/gridx/logger"
)

// ReloadCallback is called with the freshly loaded config after the
// watched file changes.
type ReloadCallback func(*Config) error

// Watcher watches a config file for changes and triggers reload
// callbacks, debouncing rapid successive writes.
type Watcher struct {
	configPath     string
	watcher        *fsnotify.Watcher
	mu             sync.Mutex
	callbacks      []ReloadCallback
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	done           chan struct{}
}

// NewWatcher creates a watcher over configPath. Call Start to begin
// receiving events and Close to release the underlying watcher.
func NewWatcher(configPath string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fw.Add(configPath); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "watch config file %s", configPath)
	}

	return &Watcher{
		configPath:     configPath,
		watcher:        fw,
		debouncePeriod: 500 * time.Millisecond,
		done:           make(chan struct{}),
	}, nil
}

// OnReload registers a callback for config changes.
func (w *Watcher) OnReload(callback ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins processing file events in a background goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.scheduleReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Config watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// scheduleReload debounces bursts of writes into one reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadFromFile(w.configPath)
	if err != nil {
		logger.Warnw("Config reload failed", "path", w.configPath, "error", err)
		return
	}

	w.mu.Lock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			logger.Warnw("Config reload callback failed", "error", err)
		}
	}
}

// Close stops event processing and releases the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
