package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/banner"
)

type BannerRepository struct {
	mu      sync.RWMutex
	banners map[string]*domain.Banner
}

func NewBannerRepository() *BannerRepository {
	return &BannerRepository{banners: make(map[string]*domain.Banner)}
}

func (r *BannerRepository) Insert(ctx context.Context, b *domain.Banner) error {
	_ = ctx
	if b == nil || b.ID == "" {
		return fmt.Errorf("banner repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.banners[b.ID]; exists {
		return domain.ErrConflict
	}
	if r.orderTakenLocked(b.Order, b.ID) {
		return domain.ErrConflict
	}
	r.banners[b.ID] = b.Clone()
	return nil
}

func (r *BannerRepository) Get(ctx context.Context, id string) (*domain.Banner, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.banners[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *BannerRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Banner, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Banner, 0, len(r.banners))
	for _, b := range r.banners {
		if filter.ActiveOnly && !b.IsActive {
			continue
		}
		out = append(out, b.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *BannerRepository) Update(ctx context.Context, b *domain.Banner) error {
	_ = ctx
	if b == nil || b.ID == "" {
		return fmt.Errorf("banner repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.banners[b.ID]; !exists {
		return domain.ErrNotFound
	}
	if r.orderTakenLocked(b.Order, b.ID) {
		return domain.ErrConflict
	}
	r.banners[b.ID] = b.Clone()
	return nil
}

func (r *BannerRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.banners[id]; !exists {
		return domain.ErrNotFound
	}
	delete(r.banners, id)
	return nil
}

func (r *BannerRepository) orderTakenLocked(order int, exceptID string) bool {
	for id, b := range r.banners {
		if id != exceptID && b.Order == order {
			return true
		}
	}
	return false
}
