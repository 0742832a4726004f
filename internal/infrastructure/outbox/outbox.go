package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

const (
	componentOutbox    = "outbox"
	defaultQueueSize   = 1024
	defaultConcurrency = 1
	handlerTimeout     = 30 * time.Second
)

// ErrClosed is returned by Publish once the bus has been stopped.
var ErrClosed = errors.New("outbox: bus stopped")

// HandlerContext builds the context a handler runs with. sc is the span context
// that was active when the event was published.
type HandlerContext func(ctx context.Context, base observability.Logger, eventName string, sc trace.SpanContext) context.Context

type Option func(*Bus)

// WithQueueSize sizes the publish queue and each subscriber's queue.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithConcurrency sets how many workers drain each subscriber's queue. With more than one,
// a subscriber may see events out of publish order.
func WithConcurrency(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func WithHandlerContext(fn HandlerContext) Option {
	return func(b *Bus) { b.handlerCtx = fn }
}

type envelope struct {
	event domoutbox.Event
	span  trace.SpanContext
}

// subscription owns a queue, so a slow handler backs up only its own events.
type subscription struct {
	event   string
	handler domoutbox.Handler
	queue   chan envelope
}

// Bus is an in-process, non-durable event bus. Published events are routed to a queue per
// subscriber; a subscriber whose queue is full loses the event instead of stalling the others.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	closed bool
	runCtx context.Context

	queue       chan envelope
	queueSize   int
	concurrency int
	handlerCtx  HandlerContext
	workers     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	log     observability.Logger
	tel     observability.Observability
	dropped observability.Counter
}

func NewBus(tel observability.Observability, opts ...Option) *Bus {
	tel = observability.Or(tel)
	b := &Bus{
		subs:        make(map[string][]*subscription),
		queueSize:   defaultQueueSize,
		concurrency: defaultConcurrency,
		done:        make(chan struct{}),
		log:         tel.Logger().With(observability.F("component", componentOutbox)),
		tel:         tel,
		dropped:     tel.Metrics().Counter(observability.MEventsDropped),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.queue = make(chan envelope, b.queueSize)
	if b.handlerCtx == nil {
		b.handlerCtx = defaultHandlerContext
	}
	return b
}

// Subscribe registers h for eventName. Subscribing after Stop does nothing.
func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.log.Warn("event_subscribe_after_stop", observability.F("event", eventName))
		return
	}
	sub := &subscription{event: eventName, handler: h, queue: make(chan envelope, b.queueSize)}
	b.subs[eventName] = append(b.subs[eventName], sub)
	if b.runCtx != nil {
		b.startWorkersLocked(b.runCtx, sub)
	}
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel

		b.mu.Lock()
		b.runCtx = bg
		for _, subs := range b.subs {
			for _, sub := range subs {
				b.startWorkersLocked(bg, sub)
			}
		}
		b.mu.Unlock()

		go b.dispatchLoop(bg)
		logctx.FromOr(ctx, b.log).Info("event_bus_started",
			observability.F("queue_size", b.queueSize),
			observability.F("concurrency", b.concurrency),
		)
	})
}

// Stop closes the queue and waits for already queued events to be handled,
// or for ctx to expire, whichever comes first.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()

		logger := logctx.FromOr(ctx, b.log)
		started := b.cancel != nil
		if started {
			select {
			case <-b.done:
			case <-ctx.Done():
				logger.Warn("event_bus_drain_aborted", observability.F("error", ctx.Err()))
			}
			b.cancel()
		}
		logger.Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		logger.Warn("event_publish_after_stop")
		return ErrClosed
	}

	select {
	case b.queue <- envelope{event: e, span: trace.SpanContextFromContext(ctx)}:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted", observability.F("error", ctx.Err()))
		return ctx.Err()
	}
}

// dispatchLoop routes queued events until the queue closes, then lets every subscriber
// drain what it already holds.
func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	defer func() {
		b.mu.RLock()
		for _, subs := range b.subs {
			for _, sub := range subs {
				close(sub.queue)
			}
		}
		b.mu.RUnlock()
		b.workers.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-b.queue:
			if !ok {
				return
			}
			b.route(env)
		}
	}
}

// route never blocks: a full subscriber queue drops the event for that subscriber only.
func (b *Bus) route(env envelope) {
	name := env.event.EventName()

	b.mu.RLock()
	subs := append([]*subscription(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}
	for _, sub := range subs {
		select {
		case sub.queue <- env:
		default:
			b.dropped.Add(1, observability.L("event", name))
			b.log.Warn("event_dropped_subscriber_full",
				observability.F("event", name),
				observability.F("queue_size", cap(sub.queue)),
			)
		}
	}
}

func (b *Bus) startWorkersLocked(ctx context.Context, sub *subscription) {
	for range b.concurrency {
		b.workers.Add(1)
		go b.runSubscription(ctx, sub)
	}
}

func (b *Bus) runSubscription(ctx context.Context, sub *subscription) {
	defer b.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-sub.queue:
			if !ok {
				return
			}
			b.deliver(ctx, sub, env)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, sub *subscription, env envelope) {
	ctx = context.WithoutCancel(ctx)
	if env.span.IsValid() {
		ctx = trace.ContextWithSpanContext(ctx, env.span)
	}
	ctx = b.handlerCtx(ctx, b.log, sub.event, env.span)
	logger := logctx.FromOr(ctx, b.log)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("event_handler_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
	}()

	hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()
	if err := sub.handler(hctx, env.event); err != nil {
		logger.Warn("event_handler_error", observability.F("error", err))
		return
	}
	logger.Debug("event_handled")
}

func defaultHandlerContext(ctx context.Context, base observability.Logger, eventName string, _ trace.SpanContext) context.Context {
	return logctx.With(ctx, base.With(observability.F("event", eventName)))
}
