package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/customer"
)

type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
	byEmail   map[string]string
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{
		customers: make(map[string]*domain.Customer),
		byEmail:   make(map[string]string),
	}
}

func (r *CustomerRepository) Insert(ctx context.Context, c *domain.Customer) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("customer repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[c.Email]; exists {
		return domain.ErrEmailTaken
	}
	if _, exists := r.customers[c.ID]; exists {
		return fmt.Errorf("customer repository: duplicate id %s", c.ID)
	}

	r.customers[c.ID] = c.Clone()
	r.byEmail[c.Email] = c.ID
	return nil
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (*domain.Customer, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.customers[id].Clone(), nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("customer repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.customers[c.ID]
	if !exists {
		return domain.ErrNotFound
	}
	if owner, taken := r.byEmail[c.Email]; taken && owner != c.ID {
		return domain.ErrEmailTaken
	}

	next := c.Clone()
	next.OrderHistory = current.OrderHistory
	delete(r.byEmail, current.Email)
	r.customers[c.ID] = next
	r.byEmail[c.Email] = c.ID
	return nil
}

func (r *CustomerRepository) AppendOrderHistory(ctx context.Context, id, orderID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.RecordOrder(orderID)
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byEmail, c.Email)
	delete(r.customers, id)
	return nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.customers)), nil
}
