package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"axisim/internal/event"
	"axisim/internal/logging"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads settings when the config file changes on disk. Editors
// typically write a burst of events per save; the debounce collapses each
// burst into one reload.
type Watcher struct {
	mu       sync.Mutex
	path     string
	fs       *fsnotify.Watcher
	debounce time.Duration
	timer    *time.Timer
	closed   bool
	done     chan struct{}

	onReload func(Settings)
	bus      *event.Bus[event.ConfigEvent]
	logger   *logging.Logger
}

// WatchSettings watches path and calls onReload with freshly loaded settings
// after each change. The watch covers the parent directory so replace-style
// saves (write temp, rename over) are still seen.
func WatchSettings(path string, logger *logging.Logger, bus *event.Bus[event.ConfigEvent], onReload func(Settings)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		fs:       fs,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
		onReload: onReload,
		bus:      bus,
		logger:   logger,
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !sameFile(ev.Name, w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", map[string]string{"error": err.Error()})
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.reload)
		return
	}
	w.timer.Reset(w.debounce)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	w.timer = nil
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	settings, err := LoadSettings(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected", map[string]string{
			"path":  w.path,
			"error": err.Error(),
		})
		w.bus.Publish(event.NewConfigEvent(w.path, "rejected", err.Error()))
		return
	}

	w.logger.Info("config reloaded", map[string]string{"path": w.path})
	w.bus.Publish(event.NewConfigEvent(w.path, "reloaded", ""))
	if w.onReload != nil {
		w.onReload(settings)
	}
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	close(w.done)
	return w.fs.Close()
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
