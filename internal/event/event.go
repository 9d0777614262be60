package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a single occurrence flowing through the bus.
// Events are immutable once created.
type Event struct {
	// Type is the hierarchical event type (e.g. "overlay.emergency-unlock").
	Type Topic

	// Payload contains the event-specific data. May be nil for
	// parameterless notifications.
	Payload any

	// Metadata contains standard event information.
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string
}

// New creates a new event with the given type, payload, and source.
func New(eventType Topic, payload any, source string) Event {
	return Event{
		Type:    eventType,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// Handler processes events delivered to a subscription.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function literal to the Handler interface.
type HandlerFunc func(ctx context.Context, ev Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// FilterFunc is a predicate applied before delivery. Events are only
// delivered when the filter returns true.
type FilterFunc func(ev Event) bool

// DeliveryMode specifies how events are delivered to a subscription.
type DeliveryMode int

const (
	// DeliverySync invokes the handler on the publisher's goroutine.
	DeliverySync DeliveryMode = iota

	// DeliveryAsync queues the event for a bus worker.
	DeliveryAsync
)

// Priority determines handler execution order; lower values execute first.
type Priority int

// Standard priorities.
const (
	PriorityHigh   Priority = -100
	PriorityNormal Priority = 0
	PriorityLow    Priority = 100
)
