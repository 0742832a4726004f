package order

import (
	"context"
	"time"
)

// ListFilter narrows List. Zero value lists every order, newest first.
type ListFilter struct {
	CustomerID string
	Status     Status
	Since      time.Time
	Limit      int
}

type Repository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
	Update(ctx context.Context, order *Order) error
	Count(ctx context.Context) (int64, error)
}
