package hook

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeBackend is an in-memory Backend whose pump blocks until PostQuit
// closes the per-thread quit channel, mirroring the message-loop shape
// of the real thing.
type fakeBackend struct {
	mu          sync.Mutex
	registerErr error
	unhookErr   error
	stuckPump   bool
	gate        chan struct{} // when set, Register blocks until it closes

	registers  int
	unhooked   []Handle
	quits      []ThreadID
	pumps      map[ThreadID]chan struct{}
	nextThread ThreadID
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{pumps: make(map[ThreadID]chan struct{})}
}

func (b *fakeBackend) Register(kind Kind) (Registration, error) {
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registerErr != nil {
		return Registration{}, b.registerErr
	}
	b.registers++
	b.nextThread++
	tid := b.nextThread
	quit := make(chan struct{})
	b.pumps[tid] = quit
	pump := func() { <-quit }
	if b.stuckPump {
		pump = func() { select {} }
	}
	return Registration{Handle: Handle(0x1000 + uintptr(tid)), Thread: tid, Pump: pump}, nil
}

func (b *fakeBackend) Unhook(h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unhooked = append(b.unhooked, h)
	return b.unhookErr
}

func (b *fakeBackend) PostQuit(tid ThreadID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	quit, ok := b.pumps[tid]
	if !ok {
		return fmt.Errorf("no message queue for thread %d", tid)
	}
	delete(b.pumps, tid)
	close(quit)
	b.quits = append(b.quits, tid)
	return nil
}

func (b *fakeBackend) registerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registers
}

func (b *fakeBackend) unhookedHandles() []Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Handle(nil), b.unhooked...)
}

func (b *fakeBackend) quitThreads() []ThreadID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ThreadID(nil), b.quits...)
}

func nopBind() error { return nil }
func nopUnbind()     {}

func TestManagerRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(Keyboard, backend)

	if m.Installed() {
		t.Fatal("fresh manager reports installed")
	}
	if err := m.install(nopBind, nopUnbind); err != nil {
		t.Fatalf("install: %v", err)
	}
	if !m.Installed() {
		t.Fatal("manager not installed after install")
	}
	if err := m.uninstall(nopUnbind); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if m.Installed() {
		t.Fatal("manager still installed after uninstall")
	}

	if got := backend.unhookedHandles(); len(got) != 1 {
		t.Fatalf("unhooked %d handles, want 1", len(got))
	}
	if got := backend.quitThreads(); len(got) != 1 {
		t.Fatalf("posted quit to %d threads, want 1", len(got))
	}

	// The manager must be reusable after a full cycle.
	if err := m.install(nopBind, nopUnbind); err != nil {
		t.Fatalf("reinstall: %v", err)
	}
	if got := backend.registerCount(); got != 2 {
		t.Fatalf("register count = %d, want 2", got)
	}
	if err := m.uninstall(nopUnbind); err != nil {
		t.Fatalf("final uninstall: %v", err)
	}
}

func TestManagerInstallIdempotent(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(Mouse, backend)

	if err := m.install(nopBind, nopUnbind); err != nil {
		t.Fatalf("first install: %v", err)
	}
	if err := m.install(nopBind, nopUnbind); err != nil {
		t.Fatalf("second install: %v", err)
	}
	if got := backend.registerCount(); got != 1 {
		t.Fatalf("register count = %d, want 1", got)
	}
	if err := m.uninstall(nopUnbind); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
}

func TestManagerUninstallWithoutInstall(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(Keyboard, backend)

	unbinds := 0
	if err := m.uninstall(func() { unbinds++ }); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if unbinds != 1 {
		t.Fatalf("unbind called %d times, want 1", unbinds)
	}
	if len(backend.unhookedHandles()) != 0 || len(backend.quitThreads()) != 0 {
		t.Fatal("uninstall of inactive hook touched the backend")
	}
}

func TestManagerConcurrentInstall(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(Keyboard, backend)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.install(nopBind, nopUnbind)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent install: %v", err)
		}
	}
	if got := backend.registerCount(); got != 1 {
		t.Fatalf("register count = %d, want 1", got)
	}
	if err := m.uninstall(nopUnbind); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
}

func TestManagerRegisterFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.registerErr = errors.New("access denied")
	m := NewManager(Keyboard, backend)

	unbinds := 0
	err := m.install(nopBind, func() { unbinds++ })
	if err == nil {
		t.Fatal("install succeeded despite registration failure")
	}
	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("install error = %v, want *RegistrationError", err)
	}
	if regErr.Kind != Keyboard {
		t.Fatalf("RegistrationError.Kind = %v, want %v", regErr.Kind, Keyboard)
	}
	if unbinds != 1 {
		t.Fatalf("unbind called %d times, want 1", unbinds)
	}
	if m.Installed() {
		t.Fatal("manager reports installed after failed registration")
	}

	// The failure must not poison later attempts.
	backend.mu.Lock()
	backend.registerErr = nil
	backend.mu.Unlock()
	if err := m.install(nopBind, nopUnbind); err != nil {
		t.Fatalf("retry install: %v", err)
	}
	if err := m.uninstall(nopUnbind); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
}

func TestManagerInstallTimeout(t *testing.T) {
	backend := newFakeBackend()
	gate := make(chan struct{})
	backend.gate = gate
	m := NewManager(Keyboard, backend, WithInstallTimeout(20*time.Millisecond))

	unbinds := 0
	err := m.install(nopBind, func() { unbinds++ })
	if !errors.Is(err, ErrInstallTimeout) {
		t.Fatalf("install error = %v, want ErrInstallTimeout", err)
	}
	if unbinds != 1 {
		t.Fatalf("unbind called %d times, want 1", unbinds)
	}
	if m.Installed() {
		t.Fatal("manager reports installed after timeout")
	}

	// Once the stalled registration completes, the orphaned hook must be
	// reaped: released and its pump told to quit.
	close(gate)
	deadline := time.After(2 * time.Second)
	for len(backend.unhookedHandles()) == 0 || len(backend.quitThreads()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("late registration not reaped: unhooked=%d quits=%d",
				len(backend.unhookedHandles()), len(backend.quitThreads()))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestManagerPriorThreadAlive(t *testing.T) {
	backend := newFakeBackend()
	backend.stuckPump = true
	m := NewManager(Mouse, backend, WithJoinTimeout(20*time.Millisecond))

	if err := m.install(nopBind, nopUnbind); err != nil {
		t.Fatalf("install: %v", err)
	}
	// Uninstall succeeds even though the pump never exits; the straggler
	// is only logged.
	if err := m.uninstall(nopUnbind); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if m.Installed() {
		t.Fatal("manager still installed after uninstall")
	}

	// A new install must refuse to race the stuck thread.
	err := m.install(nopBind, nopUnbind)
	if !errors.Is(err, ErrPriorThreadAlive) {
		t.Fatalf("install error = %v, want ErrPriorThreadAlive", err)
	}
}
