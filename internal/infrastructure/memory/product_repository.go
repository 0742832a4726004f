package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	bySKU    map[string]string
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
		bySKU:    make(map[string]string),
	}
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; exists {
		return domain.ErrConflict
	}
	if _, exists := r.bySKU[p.SKU]; exists {
		return domain.ErrConflict
	}

	r.products[p.ID] = p.Clone()
	r.bySKU[p.SKU] = p.ID
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySKU[sku]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.products[id].Clone(), nil
}

func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.MaxStock > 0 && p.Stock >= filter.MaxStock {
			continue
		}
		if !p.Matches(filter.Query) {
			continue
		}
		out = append(out, p.Clone())
	}
	r.mu.RUnlock()

	if filter.MaxStock > 0 {
		sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.products[p.ID]
	if !exists {
		return domain.ErrNotFound
	}
	if owner, taken := r.bySKU[p.SKU]; taken && owner != p.ID {
		return domain.ErrConflict
	}

	delete(r.bySKU, current.SKU)
	r.products[p.ID] = p.Clone()
	r.bySKU[p.SKU] = p.ID
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.bySKU, p.SKU)
	delete(r.products, id)
	return nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

// DecrementStock checks and subtracts under the write lock, so concurrent callers cannot oversell.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := p.Deduct(quantity); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

func (r *ProductRepository) RestoreStock(ctx context.Context, id string, quantity int) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	return p.Restock(quantity)
}
