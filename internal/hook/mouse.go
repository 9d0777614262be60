package hook

import "sync"

// WindowProber reads the target window's current bounds and posts
// reconstructed scroll messages into its queue. Both methods are called
// from the hook thread on every matching event.
type WindowProber interface {
	// Rect returns the window's current screen-space bounding rectangle.
	Rect(w WindowHandle) (Rect, error)

	// PostWheel posts a scroll message carrying the given rotation delta
	// and cursor position to the window's message queue.
	PostWheel(w WindowHandle, delta int16, pt Point) error
}

// Forwarder re-injects scroll-wheel input into the overlay window while
// the overlay is click-through.
//
// The overlay is simultaneously click-through (pointer events fall
// through it to the windows below) and still needs scroll input for its
// own content. When a scroll event lands inside the overlay's rectangle
// the forwarder posts an equivalent message directly to the overlay's
// queue and consumes the original, so the event does not also reach
// whatever sits beneath the transparent window. Everything else passes
// through untouched.
type Forwarder struct {
	mgr    *Manager
	prober WindowProber

	// target is read on every scroll event through its own short lock,
	// never the manager's install lock.
	mu     sync.RWMutex
	target WindowHandle
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

// WithForwarderManager replaces the default lifecycle manager settings.
func WithForwarderManager(opts ...ManagerOption) ForwarderOption {
	return func(f *Forwarder) {
		for _, opt := range opts {
			opt(f.mgr)
		}
	}
}

// NewForwarder creates the mouse scroll forwarder on the given backend.
func NewForwarder(backend Backend, prober WindowProber, opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		mgr:    NewManager(Mouse, backend),
		prober: prober,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Install starts the forwarder targeting the given window. Repeated
// installs are a no-op returning success; on failure the window
// reference is rolled back and the forwarder stays inactive.
func (f *Forwarder) Install(target WindowHandle) error {
	if target == 0 {
		return ErrNilWindow
	}
	return f.mgr.install(
		func() error {
			f.setTarget(target)
			activeForwarder.Store(f)
			return nil
		},
		func() {
			activeForwarder.CompareAndSwap(f, nil)
			f.setTarget(0)
		},
	)
}

// Uninstall stops the forwarder. Uninstalling an inactive forwarder is a no-op.
func (f *Forwarder) Uninstall() error {
	return f.mgr.uninstall(func() {
		activeForwarder.CompareAndSwap(f, nil)
		f.setTarget(0)
	})
}

// Installed reports whether the forwarder hook is currently installed.
func (f *Forwarder) Installed() bool {
	return f.mgr.Installed()
}

// HandleWheel processes one scroll-wheel event and reports whether the
// event was consumed. Failures inside the callback (a vanished window, a
// failed rect query or post) degrade silently to pass-through: input
// delegation takes priority over surfacing an error nobody can receive.
func (f *Forwarder) HandleWheel(pt Point, delta int16) bool {
	target := f.currentTarget()
	if target == 0 {
		return false
	}

	rect, err := f.prober.Rect(target)
	if err != nil {
		return false
	}
	if !rect.Contains(pt) {
		return false
	}

	if err := f.prober.PostWheel(target, delta, pt); err != nil {
		return false
	}
	return true
}

func (f *Forwarder) setTarget(target WindowHandle) {
	f.mu.Lock()
	f.target = target
	f.mu.Unlock()
}

func (f *Forwarder) currentTarget() WindowHandle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.target
}
