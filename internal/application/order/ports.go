package order

import "context"

type IDGenerator interface {
	NewID() string
}

// Transactor runs fn inside one storage transaction when the backend supports it.
// Repositories must use the ctx handed to fn so their writes join the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
