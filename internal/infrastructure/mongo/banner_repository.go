package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/banner"
)

// BannerRepository relies on the unique index over "order" to reject a taken slot.
type BannerRepository struct {
	col *mongo.Collection
}

func (r *BannerRepository) Insert(ctx context.Context, b *domain.Banner) error {
	if _, err := r.col.InsertOne(ctx, newBannerDoc(b)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("mongo: insert banner: %w", err)
	}
	return nil
}

func (r *BannerRepository) Get(ctx context.Context, id string) (*domain.Banner, error) {
	var doc bannerDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find banner: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BannerRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Banner, error) {
	q := bson.M{}
	if filter.ActiveOnly {
		q["is_active"] = true
	}
	cur, err := r.col.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list banners: %w", err)
	}
	var docs []bannerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode banners: %w", err)
	}
	out := make([]*domain.Banner, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *BannerRepository) Update(ctx context.Context, b *domain.Banner) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": b.ID}, newBannerDoc(b))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("mongo: update banner: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BannerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: delete banner: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
