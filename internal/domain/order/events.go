package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventOrderCreated = "order.created"

// OrderCreatedEvent is emitted once an order has been persisted.
// Subscribers run off the request path: push notification and order history.
type OrderCreatedEvent struct {
	OrderID     string
	CustomerID  string
	ItemCount   int
	TotalAmount decimal.Decimal
	OccurredAt  time.Time
}

func (OrderCreatedEvent) EventName() string { return EventOrderCreated }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return OrderCreatedEvent{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		ItemCount:   count,
		TotalAmount: o.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}
