package hook

// Kind identifies one of the low-level hook types.
type Kind int

const (
	// Keyboard is the system-wide low-level keyboard hook.
	Keyboard Kind = iota

	// Mouse is the system-wide low-level mouse hook.
	Mouse
)

// String returns a human-readable hook name.
func (k Kind) String() string {
	switch k {
	case Keyboard:
		return "keyboard"
	case Mouse:
		return "mouse"
	default:
		return "unknown"
	}
}

// Handle is the identifier of an installed OS hook. The hook object
// itself is owned by the OS; a Handle only supports being stored, loaded,
// and passed to Backend.Unhook, and is moved by value across the install
// handshake.
type Handle uintptr

// ThreadID identifies the OS thread that registered a hook and runs its
// message pump. The termination signal is addressed to this thread.
type ThreadID uint32

// WindowHandle is a non-owning reference to a native window. The
// subsystem never owns the window; it only reads its current bounds and
// posts messages to its queue.
type WindowHandle uintptr

// Point is a position in screen coordinates.
type Point struct {
	X int32
	Y int32
}

// Rect is a window rectangle in screen coordinates.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// Contains reports whether pt lies within the rectangle. All four edges
// are inclusive, so a cursor exactly on an edge counts as inside.
func (r Rect) Contains(pt Point) bool {
	return pt.X >= r.Left && pt.X <= r.Right && pt.Y >= r.Top && pt.Y <= r.Bottom
}

// Registration is the outcome of a successful hook registration.
type Registration struct {
	// Handle identifies the installed hook.
	Handle Handle

	// Thread is the identity of the registering thread.
	Thread ThreadID

	// Pump is the blocking message-retrieval loop that keeps the hook
	// alive. It returns after the termination message posted by
	// Backend.PostQuit is observed.
	Pump func()
}

// Backend abstracts the OS hook primitive. Register (and the pump it
// returns) runs on the manager's dedicated pump goroutine, which is
// pinned to an OS thread for its whole lifetime; Unhook and PostQuit are
// called from the controlling goroutine during uninstall.
type Backend interface {
	// Register installs the low-level hook of the given kind on the
	// calling thread.
	Register(kind Kind) (Registration, error)

	// Unhook releases the OS hook object.
	Unhook(h Handle) error

	// PostQuit posts the termination message to the given thread's queue
	// so its pump exits.
	PostQuit(tid ThreadID) error
}

// Logger is the subset of the application logger the hook subsystem
// uses. Lifecycle problems that are recovered rather than surfaced (a
// pump thread that outlives its join timeout, a late registration being
// released) are reported here.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopLogger discards all output.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
