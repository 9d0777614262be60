package hook

import (
	"runtime"
	"sync"
	"time"
)

// Default lifecycle timeouts. Hook registration and pump shutdown are
// expected to complete in milliseconds; the timeouts only guard against a
// wedged OS call holding the controller hostage.
const (
	DefaultInstallTimeout = 5 * time.Second
	DefaultJoinTimeout    = 2 * time.Second
)

// installResult carries the installation outcome across the handshake
// channel. Exactly one value is produced per pump goroutine and consumed
// by exactly one installing call.
type installResult struct {
	handle Handle
	thread ThreadID
	err    error
}

// Manager owns the install/uninstall lifecycle for one hook type.
//
// All state transitions are serialized by the install lock; the per-event
// callback path never takes that lock. Install spawns a dedicated pump
// goroutine, pinned to an OS thread, and blocks on the handshake until
// the hook is registered or the timeout expires. Uninstall releases the
// hook, posts the termination message, and joins the pump goroutine with
// a bounded wait.
type Manager struct {
	kind    Kind
	backend Backend
	log     Logger

	installTimeout time.Duration
	joinTimeout    time.Duration

	mu     sync.Mutex // serializes install/uninstall transitions
	handle Handle     // non-zero iff the hook is installed
	thread ThreadID   // non-zero iff a pump thread is alive
	done   chan struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithInstallTimeout bounds the wait for hook registration.
func WithInstallTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.installTimeout = d
		}
	}
}

// WithJoinTimeout bounds the wait for the pump thread to exit.
func WithJoinTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.joinTimeout = d
		}
	}
}

// WithLogger sets the lifecycle logger.
func WithLogger(log Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a lifecycle manager for one hook type.
func NewManager(kind Kind, backend Backend, opts ...ManagerOption) *Manager {
	m := &Manager{
		kind:           kind,
		backend:        backend,
		log:            nopLogger{},
		installTimeout: DefaultInstallTimeout,
		joinTimeout:    DefaultJoinTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Kind returns the hook type this manager owns.
func (m *Manager) Kind() Kind {
	return m.kind
}

// Installed reports whether the hook is currently installed.
func (m *Manager) Installed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != 0
}

// install runs the full install transition. bind persists the callback
// context (sink or target window) before the pump thread spawns; unbind
// rolls it back if installation fails. Repeated installs are a no-op.
func (m *Manager) install(bind func() error, unbind func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != 0 {
		return nil
	}

	// A previous uninstall may have left its pump thread draining. Wait it
	// out so the new registration cannot race the old thread's teardown.
	if m.done != nil {
		select {
		case <-m.done:
			m.done = nil
		case <-time.After(m.joinTimeout):
			return ErrPriorThreadAlive
		}
	}

	if err := bind(); err != nil {
		return err
	}

	ready := make(chan installResult, 1)
	done := make(chan struct{})
	go m.pump(ready, done)

	select {
	case res := <-ready:
		if res.err != nil {
			unbind()
			return res.err
		}
		m.handle = res.handle
		m.thread = res.thread
		m.done = done
		m.log.Debug("%s hook installed (thread %d)", m.kind, res.thread)
		return nil
	case <-time.After(m.installTimeout):
		unbind()
		// Registration may still complete after we gave up; release the
		// orphaned hook when it does.
		go m.reapLateInstall(ready)
		return ErrInstallTimeout
	}
}

// uninstall runs the full uninstall transition. unbind clears the
// callback context. Uninstalling an uninstalled hook is a no-op.
func (m *Manager) uninstall(unbind func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	handle, thread := m.handle, m.thread
	m.handle, m.thread = 0, 0
	unbind()

	if handle == 0 {
		return nil
	}

	if err := m.backend.Unhook(handle); err != nil {
		// The hook object may already be gone; the pump still has to stop.
		m.log.Warn("%s hook release failed: %v", m.kind, err)
	}
	if err := m.backend.PostQuit(thread); err != nil {
		m.log.Warn("%s hook quit signal failed (thread %d): %v", m.kind, thread, err)
	}

	if m.done != nil {
		select {
		case <-m.done:
			m.done = nil
		case <-time.After(m.joinTimeout):
			// Not fatal: the hook object is already released and the thread
			// holds no externally visible resource. A later install will
			// still serialize against it through m.done.
			m.log.Warn("%s hook pump thread did not exit within %v", m.kind, m.joinTimeout)
		}
	}

	m.log.Debug("%s hook uninstalled", m.kind)
	return nil
}

// pump is the body of the dedicated hook thread: register the hook,
// report the outcome through the handshake, then run the blocking message
// loop until the termination message arrives.
func (m *Manager) pump(ready chan<- installResult, done chan struct{}) {
	defer close(done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	reg, err := m.backend.Register(m.kind)
	if err != nil {
		ready <- installResult{err: &RegistrationError{Kind: m.kind, Err: err}}
		return
	}
	ready <- installResult{handle: reg.Handle, thread: reg.Thread}

	if reg.Pump != nil {
		reg.Pump()
	}
}

// reapLateInstall waits for a handshake result that arrived after the
// install timeout and releases the orphaned hook.
func (m *Manager) reapLateInstall(ready <-chan installResult) {
	res := <-ready
	if res.err != nil {
		return
	}
	m.log.Warn("%s hook registered after timeout, releasing", m.kind)
	if err := m.backend.Unhook(res.handle); err != nil {
		m.log.Warn("%s hook late release failed: %v", m.kind, err)
	}
	if err := m.backend.PostQuit(res.thread); err != nil {
		m.log.Warn("%s hook late quit signal failed: %v", m.kind, err)
	}
}
