//go:build !windows

package hook

// stubBackend is used on platforms without low-level hook support. Every
// install fails with ErrUnsupported so the overlay features simply stay
// inactive.
type stubBackend struct{}

// NewBackend returns the platform hook backend.
func NewBackend() Backend {
	return stubBackend{}
}

func (stubBackend) Register(Kind) (Registration, error) {
	return Registration{}, ErrUnsupported
}

func (stubBackend) Unhook(Handle) error {
	return ErrUnsupported
}

func (stubBackend) PostQuit(ThreadID) error {
	return ErrUnsupported
}

// stubProber is the WindowProber counterpart of stubBackend.
type stubProber struct{}

// NewWindowProber returns the platform window prober.
func NewWindowProber() WindowProber {
	return stubProber{}
}

func (stubProber) Rect(WindowHandle) (Rect, error) {
	return Rect{}, ErrUnsupported
}

func (stubProber) PostWheel(WindowHandle, int16, Point) error {
	return ErrUnsupported
}
