package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

type TransactionRepository struct {
	col *mongo.Collection
}

// Insert relies on the unique gateway_transaction_id index to reject a second record
// for the same gateway payment.
func (r *TransactionRepository) Insert(ctx context.Context, t *domain.Transaction) error {
	doc, err := newTransactionDoc(t)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateTransaction
		}
		return fmt.Errorf("mongo: insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	var doc transactionDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find transaction: %w", err)
	}
	return doc.toDomain()
}

func (r *TransactionRepository) GetByGatewayID(ctx context.Context, gatewayTransactionID string) (*domain.Transaction, error) {
	var doc transactionDoc
	err := r.col.FindOne(ctx, bson.M{"gateway_transaction_id": gatewayTransactionID}).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find transaction by gateway id: %w", err)
	}
	return doc.toDomain()
}

func (r *TransactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	doc, err := newTransactionDoc(t)
	if err != nil {
		return err
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": t.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateTransaction
		}
		return fmt.Errorf("mongo: update transaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo: count transactions: %w", err)
	}
	return n, nil
}
