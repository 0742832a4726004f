package outbox

import "context"

// Event is anything published on the bus, keyed by name.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

// Publisher enqueues an event; delivery to handlers happens asynchronously.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
