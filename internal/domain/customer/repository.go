package customer

import "context"

type Repository interface {
	Insert(ctx context.Context, c *Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	List(ctx context.Context) ([]*Customer, error)
	// Update writes every field except OrderHistory, which only AppendOrderHistory changes.
	Update(ctx context.Context, c *Customer) error
	AppendOrderHistory(ctx context.Context, id, orderID string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
