package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces the bursts of filesystem events editors
// produce for a single save.
const defaultDebounce = 100 * time.Millisecond

// Handler is called with the freshly reloaded configuration after the
// settings file changes on disk.
type Handler func(*Config)

// Watcher reloads the configuration when its file changes.
//
// The watch is placed on the settings directory rather than the file:
// most editors save by writing a temp file and renaming it over the
// original, which would silently drop a file-level watch.
type Watcher struct {
	cfg      *Config
	fw       *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	handlers []Handler

	done chan struct{}
	wg   sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchDebounce sets the event coalescing window.
func WithWatchDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// Watch starts watching cfg's settings file for changes.
func Watch(cfg *Config, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(cfg.Path())); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		cfg:      cfg,
		fw:       fw,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// OnChange registers a handler for reload notifications. Handlers run on
// the watcher goroutine and should return quickly.
func (w *Watcher) OnChange(h Handler) {
	if h == nil {
		return
	}
	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	name := filepath.Base(w.cfg.Path())
	var pending *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(w.debounce)
				fire = pending.C
			} else {
				if !pending.Stop() {
					<-fire
				}
				pending.Reset(w.debounce)
			}
		case <-fire:
			pending, fire = nil, nil
			w.cfg.Reload()
			w.notify()
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) notify() {
	w.mu.Lock()
	handlers := append([]Handler(nil), w.handlers...)
	w.mu.Unlock()
	for _, h := range handlers {
		h(w.cfg)
	}
}
