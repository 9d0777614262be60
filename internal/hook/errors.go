package hook

import (
	"errors"
	"fmt"
)

// Sentinel errors for the hook subsystem.
var (
	// ErrUnsupported is returned on platforms without low-level hook support.
	ErrUnsupported = errors.New("low-level hooks are not supported on this platform")

	// ErrInstallTimeout is returned when hook registration does not
	// report back within the install timeout.
	ErrInstallTimeout = errors.New("hook installation timed out")

	// ErrPriorThreadAlive is returned when a new install finds the
	// previous pump thread still running after its grace period.
	ErrPriorThreadAlive = errors.New("prior hook thread has not exited")

	// ErrNilSink is returned when installing the keyboard watcher without a sink.
	ErrNilSink = errors.New("event sink cannot be nil")

	// ErrNilWindow is returned when installing the scroll forwarder
	// without a target window.
	ErrNilWindow = errors.New("target window handle cannot be zero")
)

// RegistrationError indicates the OS refused to install a hook.
type RegistrationError struct {
	// Kind is the hook type whose registration failed.
	Kind Kind

	// Err is the underlying OS error.
	Err error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%s hook registration failed: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
