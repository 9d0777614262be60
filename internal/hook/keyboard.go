package hook

import "sync"

// VKEscape is the default panic/unlock virtual key code.
const VKEscape uint32 = 0x1B

// Sink receives the emergency-unlock notification. Implementations must
// not block: EmergencyUnlock is invoked on the hook thread, inside the
// OS input-delivery path.
type Sink interface {
	EmergencyUnlock()
}

// Watcher detects a bare panic-key press regardless of window focus.
//
// The watched key is never consumed: the callback always delegates to
// the next hook in the chain so every other application still receives
// the key, even while the overlay holds focus tricks.
type Watcher struct {
	mgr *Manager
	key uint32

	// sink is read on every matching key event through its own short
	// lock, never the manager's install lock, so the callback cannot
	// block on an in-flight transition.
	mu   sync.RWMutex
	sink Sink
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPanicKey sets the watched virtual key code.
func WithPanicKey(vk uint32) WatcherOption {
	return func(w *Watcher) {
		if vk != 0 {
			w.key = vk
		}
	}
}

// WithWatcherManager replaces the default lifecycle manager settings.
func WithWatcherManager(opts ...ManagerOption) WatcherOption {
	return func(w *Watcher) {
		for _, opt := range opts {
			opt(w.mgr)
		}
	}
}

// NewWatcher creates the keyboard escape watcher on the given backend.
func NewWatcher(backend Backend, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		mgr: NewManager(Keyboard, backend),
		key: VKEscape,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Install starts the watcher with the given sink. Repeated installs are
// a no-op returning success; on failure the sink reference is rolled
// back and the watcher stays inactive.
func (w *Watcher) Install(sink Sink) error {
	if sink == nil {
		return ErrNilSink
	}
	return w.mgr.install(
		func() error {
			w.setSink(sink)
			activeWatcher.Store(w)
			return nil
		},
		func() {
			activeWatcher.CompareAndSwap(w, nil)
			w.setSink(nil)
		},
	)
}

// Uninstall stops the watcher. Uninstalling an inactive watcher is a no-op.
func (w *Watcher) Uninstall() error {
	return w.mgr.uninstall(func() {
		activeWatcher.CompareAndSwap(w, nil)
		w.setSink(nil)
	})
}

// Installed reports whether the watcher hook is currently installed.
func (w *Watcher) Installed() bool {
	return w.mgr.Installed()
}

// HandleKey processes one low-level keyboard event and reports whether
// the event should be consumed. Key events are never consumed.
func (w *Watcher) HandleKey(keyDown bool, vk uint32) bool {
	if keyDown && vk == w.key {
		if sink := w.currentSink(); sink != nil {
			sink.EmergencyUnlock()
		}
	}
	return false
}

func (w *Watcher) setSink(sink Sink) {
	w.mu.Lock()
	w.sink = sink
	w.mu.Unlock()
}

func (w *Watcher) currentSink() Sink {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sink
}
