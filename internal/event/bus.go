package event

import (
	"context"
	"sync"
	"sync/atomic"
)

// Bus is the central event bus interface.
type Bus interface {
	// Publishing
	Publish(ctx context.Context, ev Event) error
	PublishAsync(ctx context.Context, ev Event) error

	// Subscription
	Subscribe(pattern Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error)
	SubscribeFunc(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)
	Unsubscribe(sub Subscription) error

	// Lifecycle
	Start() error
	Stop(ctx context.Context) error

	// Status
	Stats() Stats
	IsRunning() bool
}

// Stats is a snapshot of bus counters.
type Stats struct {
	Published     uint64
	Delivered     uint64
	Dropped       uint64
	HandlerErrors uint64
	HandlerPanics uint64
	Subscriptions int
}

// busConfig holds bus construction settings.
type busConfig struct {
	queueSize    int
	workers      int
	errorHandler func(error)
}

func defaultBusConfig() busConfig {
	return busConfig{
		queueSize: 256,
		workers:   2,
	}
}

// BusOption configures a bus at construction time.
type BusOption func(*busConfig)

// WithQueueSize sets the async delivery queue capacity.
func WithQueueSize(n int) BusOption {
	return func(c *busConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithWorkers sets the number of async delivery workers.
func WithWorkers(n int) BusOption {
	return func(c *busConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithErrorHandler sets a callback invoked with handler errors and
// recovered panics. The callback must not publish synchronously back
// into the bus.
func WithErrorHandler(fn func(error)) BusOption {
	return func(c *busConfig) {
		c.errorHandler = fn
	}
}

// delivery is one queued handler invocation.
type delivery struct {
	ev  Event
	sub *subscription
}

// bus is the default Bus implementation.
type bus struct {
	registry *Registry
	config   busConfig

	queue chan delivery
	quit  chan struct{}
	wg    sync.WaitGroup

	running atomic.Bool

	published     atomic.Uint64
	delivered     atomic.Uint64
	dropped       atomic.Uint64
	handlerErrors atomic.Uint64
	handlerPanics atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &bus{
		registry: NewRegistry(),
		config:   config,
	}
}

// Start launches the async delivery workers.
func (b *bus) Start() error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrBusAlreadyRunning
	}

	b.queue = make(chan delivery, b.config.queueSize)
	b.quit = make(chan struct{})

	for i := 0; i < b.config.workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return nil
}

// Stop drains the async queue and waits for workers to exit, bounded by ctx.
func (b *bus) Stop(ctx context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return ErrBusNotRunning
	}

	close(b.quit)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrShutdownTimeout
	}
}

// IsRunning reports whether the bus is started.
func (b *bus) IsRunning() bool {
	return b.running.Load()
}

// Subscribe registers a handler for a topic pattern.
func (b *bus) Subscribe(pattern Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if err := pattern.Validate(); err != nil {
		return nil, err
	}

	config := SubscriptionConfig{Priority: PriorityNormal}
	for _, opt := range opts {
		opt(&config)
	}

	sub := newSubscription(pattern, handler, config)
	b.registry.Add(sub)
	return sub, nil
}

// SubscribeFunc registers a function handler for a topic pattern.
func (b *bus) SubscribeFunc(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe removes a subscription from the bus.
func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}
	sub.Cancel()
	if !b.registry.Remove(sub.ID()) {
		return ErrSubscriptionNotFound
	}
	return nil
}

// Publish delivers the event to matching subscriptions, honoring each
// subscription's delivery mode: sync handlers run on the caller's
// goroutine, async handlers are queued for the worker pool.
func (b *bus) Publish(ctx context.Context, ev Event) error {
	return b.publish(ctx, ev, false)
}

// PublishAsync queues the event for every matching subscription so the
// caller never blocks on handler execution.
func (b *bus) PublishAsync(ctx context.Context, ev Event) error {
	return b.publish(ctx, ev, true)
}

func (b *bus) publish(ctx context.Context, ev Event, forceAsync bool) error {
	if !b.running.Load() {
		return ErrBusNotRunning
	}
	if err := ev.Type.Validate(); err != nil {
		return err
	}

	b.published.Add(1)

	var firstErr error
	for _, sub := range b.registry.Match(ev.Type) {
		async := forceAsync || sub.Config().DeliveryMode == DeliveryAsync
		if !async {
			b.deliver(ctx, delivery{ev: ev, sub: sub})
			continue
		}
		select {
		case b.queue <- delivery{ev: ev, sub: sub}:
		default:
			b.dropped.Add(1)
			if firstErr == nil {
				firstErr = ErrQueueFull
			}
		}
	}
	return firstErr
}

// Stats returns a snapshot of bus counters.
func (b *bus) Stats() Stats {
	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		Dropped:       b.dropped.Load(),
		HandlerErrors: b.handlerErrors.Load(),
		HandlerPanics: b.handlerPanics.Load(),
		Subscriptions: b.registry.Len(),
	}
}

// worker consumes queued deliveries until the bus stops, then drains
// whatever is left in the queue before exiting.
func (b *bus) worker() {
	defer b.wg.Done()
	for {
		select {
		case d := <-b.queue:
			b.deliver(context.Background(), d)
		case <-b.quit:
			for {
				select {
				case d := <-b.queue:
					b.deliver(context.Background(), d)
				default:
					return
				}
			}
		}
	}
}

// deliver invokes one subscription's handler with panic recovery.
func (b *bus) deliver(ctx context.Context, d delivery) {
	if !d.sub.IsActive() {
		return
	}
	if f := d.sub.Config().Filter; f != nil && !f(d.ev) {
		return
	}
	if d.sub.Config().Once {
		d.sub.Cancel()
		b.registry.Remove(d.sub.ID())
	}

	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			if b.config.errorHandler != nil {
				b.config.errorHandler(&HandlerError{
					SubscriptionID: d.sub.ID(),
					Topic:          d.ev.Type.String(),
					Err:            &PanicError{Value: r},
				})
			}
		}
	}()

	if err := d.sub.handler.Handle(ctx, d.ev); err != nil {
		b.handlerErrors.Add(1)
		if b.config.errorHandler != nil {
			b.config.errorHandler(&HandlerError{
				SubscriptionID: d.sub.ID(),
				Topic:          d.ev.Type.String(),
				Err:            err,
			})
		}
		return
	}
	b.delivered.Add(1)
}

