package catalog

import "context"

// ProductFilter narrows List. Zero value lists everything.
type ProductFilter struct {
	CategoryID string
	Query      string
	// MaxStock, when > 0, keeps products with Stock < MaxStock.
	MaxStock int
	Limit    int
}

type ProductRepository interface {
	Insert(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	// DecrementStock subtracts quantity only when the product holds at least that much,
	// as one atomic step, and returns the product as it is after the write.
	DecrementStock(ctx context.Context, id string, quantity int) (*Product, error)
	// RestoreStock adds quantity back; used to compensate a failed order placement.
	RestoreStock(ctx context.Context, id string, quantity int) error
}

type CategoryRepository interface {
	Insert(ctx context.Context, c *Category) error
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Update(ctx context.Context, c *Category) error
	DeleteBySlug(ctx context.Context, slug string) error
}
