package outbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBus_FansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(nil)
	var mu sync.Mutex
	got := map[string]int{}
	var wg sync.WaitGroup
	wg.Add(2)

	for _, id := range []string{"a", "b"} {
		bus.Subscribe("order.created", func(context.Context, domoutbox.Event) error {
			mu.Lock()
			got[id]++
			mu.Unlock()
			wg.Done()
			return nil
		})
	}
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.created"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "unrelated"}))
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, got)
}

func TestBus_PublishAfterStop(t *testing.T) {
	bus := NewBus(observability.Nop())
	bus.Start(context.Background())
	bus.Stop(context.Background())
	bus.Stop(context.Background())

	err := bus.Publish(context.Background(), testEvent{name: "x"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBus_StopDrainsQueue(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(16))
	var mu sync.Mutex
	handled := 0
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	})
	bus.Start(context.Background())

	for range 5 {
		require.NoError(t, bus.Publish(context.Background(), testEvent{name: "x"}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	bus.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, handled)
}

func TestBus_HandlerPanicDoesNotKillDispatch(t *testing.T) {
	bus := NewBus(nil)
	done := make(chan struct{})
	bus.Subscribe("boom", func(context.Context, domoutbox.Event) error { panic("bad handler") })
	bus.Subscribe("ok", func(context.Context, domoutbox.Event) error {
		close(done)
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "boom"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "ok"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop stopped after a handler panic")
	}
}

func TestBus_CarriesPublisherSpanContext(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	seen := make(chan trace.SpanContext, 2)

	bus := NewBus(nil, WithHandlerContext(func(ctx context.Context, _ observability.Logger, _ string, got trace.SpanContext) context.Context {
		seen <- got
		return ctx
	}))
	bus.Subscribe("x", func(ctx context.Context, _ domoutbox.Event) error {
		seen <- trace.SpanContextFromContext(ctx)
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(trace.ContextWithSpanContext(context.Background(), sc), testEvent{name: "x"}))

	for range 2 {
		select {
		case got := <-seen:
			assert.Equal(t, sc.TraceID(), got.TraceID())
			assert.Equal(t, sc.SpanID(), got.SpanID())
		case <-time.After(2 * time.Second):
			t.Fatal("handler not invoked")
		}
	}
}

func TestBus_SlowSubscriberDoesNotDelayOthers(t *testing.T) {
	bus := NewBus(nil)
	release := make(chan struct{})
	fast := make(chan struct{}, 3)
	bus.Subscribe("order.created", func(context.Context, domoutbox.Event) error {
		<-release
		return nil
	})
	bus.Subscribe("order.created", func(context.Context, domoutbox.Event) error {
		fast <- struct{}{}
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())
	defer close(release)

	for range 3 {
		require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.created"}))
	}
	for i := range 3 {
		select {
		case <-fast:
		case <-time.After(2 * time.Second):
			t.Fatalf("fast subscriber got %d of 3 events while the other was blocked", i)
		}
	}
}

func TestBus_FullSubscriberQueueDropsInsteadOfBlockingPublish(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(1))
	release := make(chan struct{})
	var mu sync.Mutex
	handled := 0
	bus.Subscribe("x", func(context.Context, domoutbox.Event) error {
		<-release
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	})
	bus.Start(context.Background())

	for range 20 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := bus.Publish(ctx, testEvent{name: "x"})
		cancel()
		require.NoError(t, err)
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	bus.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, handled)
	assert.Less(t, handled, 20)
}
