package event

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription is receiving events.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStatePaused means the subscription is temporarily not receiving events.
	SubscriptionStatePaused

	// SubscriptionStateCancelled means the subscription has been permanently cancelled.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStatePaused:
		return "paused"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Subscription is an active registration on the bus. It provides methods
// to control delivery without touching the bus itself.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed topic pattern.
	Topic() Topic

	// State returns the current subscription state.
	State() SubscriptionState

	// IsActive returns true if the subscription can receive events.
	IsActive() bool

	// Pause temporarily stops event delivery to this subscription.
	Pause()

	// Resume restarts event delivery after a pause.
	Resume()

	// Cancel permanently cancels the subscription.
	// After cancellation, the subscription cannot be resumed.
	Cancel()
}

// SubscriptionConfig contains per-subscription delivery settings.
type SubscriptionConfig struct {
	// Priority determines execution order (lower values execute first).
	Priority Priority

	// DeliveryMode specifies sync or async delivery.
	DeliveryMode DeliveryMode

	// Filter is an optional predicate applied before delivery.
	Filter FilterFunc

	// Once indicates the subscription auto-cancels after the first delivery.
	Once bool
}

// SubscriptionOption configures a subscription at registration time.
type SubscriptionOption func(*SubscriptionConfig)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Priority = p
	}
}

// WithAsync requests queued delivery through the bus worker pool.
func WithAsync() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.DeliveryMode = DeliveryAsync
	}
}

// WithFilter sets a delivery predicate.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Filter = f
	}
}

// WithOnce auto-cancels the subscription after its first delivery.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

// subscription is the internal Subscription implementation.
type subscription struct {
	id      string
	pattern Topic
	handler Handler
	config  SubscriptionConfig
	state   atomic.Int32
}

func newSubscription(pattern Topic, handler Handler, config SubscriptionConfig) *subscription {
	return &subscription{
		id:      uuid.NewString(),
		pattern: pattern,
		handler: handler,
		config:  config,
	}
}

// ID returns the unique subscription identifier.
func (s *subscription) ID() string { return s.id }

// Topic returns the subscribed topic pattern.
func (s *subscription) Topic() Topic { return s.pattern }

// Config returns the subscription's delivery settings.
func (s *subscription) Config() SubscriptionConfig { return s.config }

// State returns the current subscription state.
func (s *subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// IsActive returns true if the subscription can receive events.
func (s *subscription) IsActive() bool {
	return s.State() == SubscriptionStateActive
}

// Pause temporarily stops event delivery.
func (s *subscription) Pause() {
	s.state.CompareAndSwap(int32(SubscriptionStateActive), int32(SubscriptionStatePaused))
}

// Resume restarts event delivery after a pause.
func (s *subscription) Resume() {
	s.state.CompareAndSwap(int32(SubscriptionStatePaused), int32(SubscriptionStateActive))
}

// Cancel permanently cancels the subscription.
func (s *subscription) Cancel() {
	s.state.Store(int32(SubscriptionStateCancelled))
}
