package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates the application is already running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning indicates the application is not running.
	ErrNotRunning = errors.New("application not running")

	// ErrNoWindow indicates no overlay window has been attached.
	ErrNoWindow = errors.New("no overlay window attached")
)

// OperationError represents an error that occurred during a specific
// application operation.
type OperationError struct {
	Op  string // Operation name (e.g., "lock", "unlock", "attach")
	Err error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op string, err error) *OperationError {
	return &OperationError{Op: op, Err: err}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches both the wrapper itself and the wrapped error.
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*OperationError); ok {
		return e == t
	}
	return errors.Is(e.Err, target)
}
