package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/customer"
)

type CustomerRepository struct {
	col *mongo.Collection
}

func (r *CustomerRepository) Insert(ctx context.Context, c *domain.Customer) error {
	if _, err := r.col.InsertOne(ctx, newCustomerDoc(c)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("mongo: insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *CustomerRepository) findOne(ctx context.Context, filter bson.M) (*domain.Customer, error) {
	var doc customerDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find customer: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list customers: %w", err)
	}
	var docs []customerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode customers: %w", err)
	}
	out := make([]*domain.Customer, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// Update sets every field but order_history so a concurrent AppendOrderHistory is never lost.
func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	doc := newCustomerDoc(c)
	set := bson.M{
		"email":              doc.Email,
		"password_hash":      doc.PasswordHash,
		"first_name":         doc.FirstName,
		"last_name":          doc.LastName,
		"phone":              doc.Phone,
		"shipping_addresses": doc.ShippingAddresses,
		"cart":               doc.Cart,
		"wishlist":           doc.Wishlist,
		"is_active":          doc.IsActive,
		"last_login_at":      doc.LastLoginAt,
		"updated_at":         doc.UpdatedAt,
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("mongo: update customer: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) AppendOrderHistory(ctx context.Context, id, orderID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"order_history": orderID}},
	)
	if err != nil {
		return fmt.Errorf("mongo: append order history: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: delete customer: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo: count customers: %w", err)
	}
	return n, nil
}
