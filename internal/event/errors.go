package event

import "errors"

// Sentinel errors for the event bus.
var (
	// ErrBusNotRunning is returned when operations are attempted on a stopped bus.
	ErrBusNotRunning = errors.New("event bus is not running")

	// ErrBusAlreadyRunning is returned when Start is called on a running bus.
	ErrBusAlreadyRunning = errors.New("event bus is already running")

	// ErrQueueFull is returned when the async queue cannot accept more events.
	ErrQueueFull = errors.New("event queue is full")

	// ErrInvalidTopic is returned when a topic is empty or malformed.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrSubscriptionNotFound is returned when unsubscribing an unknown subscription.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")
)

// HandlerError wraps an error returned by a subscription handler.
type HandlerError struct {
	// SubscriptionID is the ID of the subscription whose handler failed.
	SubscriptionID string

	// Topic is the topic of the event being delivered.
	Topic string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return "handler error for subscription " + e.SubscriptionID + " on topic " + e.Topic + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError carries a recovered handler panic value as an error.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "handler panicked"
}
