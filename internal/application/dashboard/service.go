package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domcustomer "github.com/Zhima-Mochi/storefront/internal/domain/customer"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

const (
	salesWindow       = 30 * 24 * time.Hour
	recentOrderLimit  = 5
	lowStockThreshold = 10
	lowStockLimit     = 5
)

type Stats struct {
	Products     int64
	Orders       int64
	Customers    int64
	Transactions int64
	Sales30d     decimal.Decimal
	RecentOrders []*domorder.Order
	LowStock     []*domcatalog.Product
	GeneratedAt  time.Time
}

type Service struct {
	products     domcatalog.ProductRepository
	orders       domorder.Repository
	customers    domcustomer.Repository
	transactions dompayment.Repository
	now          func() time.Time
}

func NewService(
	products domcatalog.ProductRepository,
	orders domorder.Repository,
	customers domcustomer.Repository,
	transactions dompayment.Repository,
) *Service {
	return &Service{
		products:     products,
		orders:       orders,
		customers:    customers,
		transactions: transactions,
		now:          time.Now,
	}
}

// Stats counts delivered orders from the last 30 days as sales.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	st := &Stats{GeneratedAt: now, Sales30d: decimal.Zero}

	var err error
	if st.Products, err = s.products.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: count products: %w", err)
	}
	if st.Orders, err = s.orders.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: count orders: %w", err)
	}
	if st.Customers, err = s.customers.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: count customers: %w", err)
	}
	if st.Transactions, err = s.transactions.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: count transactions: %w", err)
	}

	delivered, err := s.orders.List(ctx, domorder.ListFilter{
		Status: domorder.StatusDelivered,
		Since:  now.Add(-salesWindow),
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: delivered orders: %w", err)
	}
	for _, o := range delivered {
		st.Sales30d = st.Sales30d.Add(o.TotalAmount)
	}

	if st.RecentOrders, err = s.orders.List(ctx, domorder.ListFilter{Limit: recentOrderLimit}); err != nil {
		return nil, fmt.Errorf("dashboard: recent orders: %w", err)
	}
	if st.LowStock, err = s.products.List(ctx, domcatalog.ProductFilter{MaxStock: lowStockThreshold, Limit: lowStockLimit}); err != nil {
		return nil, fmt.Errorf("dashboard: low stock: %w", err)
	}
	return st, nil
}
