package memory

import "context"

// Transactor runs fn directly. The memory store has no multi-record transactions;
// order placement relies on compensation instead.
type Transactor struct{}

func (Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
