package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	colProducts     = "products"
	colCategories   = "categories"
	colCustomers    = "customers"
	colOrders       = "orders"
	colTransactions = "transactions"
	colBanners      = "banners"

	connectTimeout = 10 * time.Second
)

// Store owns the client and database handle shared by every repository.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" || database == "" {
		return nil, errors.New("mongo: uri and database are required")
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes the repositories rely on for conflict detection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		colProducts: {
			{Keys: bson.D{{Key: "sku", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
			{Keys: bson.D{{Key: "stock", Value: 1}}},
		},
		colCategories: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		},
		colCustomers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		colOrders: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "gateway_transaction_id", Value: 1}}, Options: unique},
		},
		colBanners: {
			{Keys: bson.D{{Key: "order", Value: 1}}, Options: unique},
		},
	}
	for col, models := range specs {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: create indexes on %s: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Products() *ProductRepository {
	return &ProductRepository{col: s.db.Collection(colProducts)}
}

func (s *Store) Categories() *CategoryRepository {
	return &CategoryRepository{col: s.db.Collection(colCategories)}
}

func (s *Store) Customers() *CustomerRepository {
	return &CustomerRepository{col: s.db.Collection(colCustomers)}
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{col: s.db.Collection(colOrders)}
}

func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{col: s.db.Collection(colTransactions)}
}

func (s *Store) Banners() *BannerRepository {
	return &BannerRepository{col: s.db.Collection(colBanners)}
}

// Transactor wraps fn in a multi-document transaction. Transactions need a replica set;
// with enabled=false fn runs directly and order placement relies on compensation alone.
func (s *Store) Transactor(enabled bool) *Transactor {
	return &Transactor{client: s.client, enabled: enabled}
}

type Transactor struct {
	client  *mongo.Client
	enabled bool
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func now() time.Time {
	return time.Now().UTC()
}
