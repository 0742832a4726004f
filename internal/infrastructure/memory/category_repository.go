package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
)

// CategoryRepository is keyed by slug.
type CategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]*domain.Category
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{categories: make(map[string]*domain.Category)}
}

func (r *CategoryRepository) Insert(ctx context.Context, c *domain.Category) error {
	_ = ctx
	if c == nil || c.Slug == "" {
		return fmt.Errorf("category repository: slug is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[c.Slug]; exists {
		return domain.ErrConflict
	}
	r.categories[c.Slug] = c.Clone()
	return nil
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	_ = ctx
	if c == nil || c.Slug == "" {
		return fmt.Errorf("category repository: slug is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[c.Slug]; !exists {
		return domain.ErrNotFound
	}
	r.categories[c.Slug] = c.Clone()
	return nil
}

func (r *CategoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[slug]; !exists {
		return domain.ErrNotFound
	}
	delete(r.categories, slug)
	return nil
}
