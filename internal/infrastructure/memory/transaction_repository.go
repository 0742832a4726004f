package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

type TransactionRepository struct {
	mu        sync.RWMutex
	txns      map[string]*domain.Transaction
	byGateway map[string]string
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		txns:      make(map[string]*domain.Transaction),
		byGateway: make(map[string]string),
	}
}

func (r *TransactionRepository) Insert(ctx context.Context, t *domain.Transaction) error {
	_ = ctx
	if t == nil || t.ID == "" {
		return fmt.Errorf("transaction repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byGateway[t.GatewayTransactionID]; exists {
		return domain.ErrDuplicateTransaction
	}
	r.txns[t.ID] = t.Clone()
	r.byGateway[t.GatewayTransactionID] = t.ID
	return nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.txns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *TransactionRepository) GetByGatewayID(ctx context.Context, gatewayTransactionID string) (*domain.Transaction, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byGateway[gatewayTransactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.txns[id].Clone(), nil
}

func (r *TransactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	_ = ctx
	if t == nil || t.ID == "" {
		return fmt.Errorf("transaction repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.txns[t.ID]
	if !exists {
		return domain.ErrNotFound
	}
	if current.GatewayTransactionID != t.GatewayTransactionID {
		if _, taken := r.byGateway[t.GatewayTransactionID]; taken {
			return domain.ErrDuplicateTransaction
		}
		delete(r.byGateway, current.GatewayTransactionID)
		r.byGateway[t.GatewayTransactionID] = t.ID
	}
	r.txns[t.ID] = t.Clone()
	return nil
}

func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.txns)), nil
}
