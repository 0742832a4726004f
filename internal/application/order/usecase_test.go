package order_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

var shipTo = domorder.ShippingAddress{Line1: "12 Baker St", City: "Pune", Zip: "411001", Country: "IN"}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("id-%d", s.n.Add(1)) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type failingOrders struct {
	*memory.OrderRepository
}

func (failingOrders) Save(context.Context, *domorder.Order) error {
	return errors.New("disk full")
}

type fixture struct {
	products  *memory.ProductRepository
	orders    domorder.Repository
	publisher *recordingPublisher
	uc        *apporder.PlaceOrderUseCase
}

func newFixture(t *testing.T, orders domorder.Repository) *fixture {
	t.Helper()
	if orders == nil {
		orders = memory.NewOrderRepository()
	}
	f := &fixture{
		products:  memory.NewProductRepository(),
		orders:    orders,
		publisher: &recordingPublisher{},
	}
	f.uc = apporder.NewPlaceOrderUseCase(f.products, f.orders, memory.Transactor{}, &seqIDs{}, f.publisher, observability.Nop())
	return f
}

func (f *fixture) seed(t *testing.T, id string, price string, stock int) {
	t.Helper()
	p, err := catalog.NewProduct(id, catalog.Product{
		SKU:        "SKU-" + id,
		Name:       "Product " + id,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: "cat",
	})
	require.NoError(t, err)
	require.NoError(t, f.products.Insert(context.Background(), p))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestPlaceOrder_DecrementsStock(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "p1", "120.50", 5)

	o, err := f.uc.Execute(context.Background(), apporder.PlaceOrderInput{
		CustomerID:      "c-1",
		Items:           []apporder.PlaceOrderItem{{ProductID: "p1", Quantity: 3}},
		ShippingAddress: shipTo,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, f.stock(t, "p1"))
	assert.Equal(t, domorder.StatusPending, o.Status)
	assert.True(t, decimal.RequireFromString("361.50").Equal(o.TotalAmount))

	stored, err := f.orders.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)

	require.Len(t, f.publisher.events, 1)
	evt := f.publisher.events[0].(domorder.OrderCreatedEvent)
	assert.Equal(t, o.ID, evt.OrderID)
}

func TestRevert_RestoresStockAndCancelsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seed(t, "p1", "10", 5)
	f.seed(t, "p2", "20", 4)

	o, err := f.uc.Execute(ctx, apporder.PlaceOrderInput{
		CustomerID: "c-1",
		Items: []apporder.PlaceOrderItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		ShippingAddress: shipTo,
	})
	require.NoError(t, err)
	require.Equal(t, 3, f.stock(t, "p1"))

	require.NoError(t, f.uc.Revert(ctx, o))
	assert.Equal(t, 5, f.stock(t, "p1"))
	assert.Equal(t, 4, f.stock(t, "p2"))

	stored, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, stored.Status)

	require.NoError(t, f.uc.Revert(ctx, o))
	assert.Equal(t, 5, f.stock(t, "p1"))
}

func TestPlaceOrder_InsufficientStockLeavesStock(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "p1", "10", 2)

	_, err := f.uc.Execute(context.Background(), apporder.PlaceOrderInput{
		CustomerID:      "c-1",
		Items:           []apporder.PlaceOrderItem{{ProductID: "p1", Quantity: 3}},
		ShippingAddress: shipTo,
	})
	require.ErrorIs(t, err, apporder.ErrInsufficientStock)

	assert.Equal(t, 2, f.stock(t, "p1"))
	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrder_RestoresEarlierItemsOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		items   []apporder.PlaceOrderItem
		wantErr error
	}{
		{
			name: "insufficient stock on a later item",
			items: []apporder.PlaceOrderItem{
				{ProductID: "p1", Quantity: 2},
				{ProductID: "p2", Quantity: 1},
				{ProductID: "p3", Quantity: 9},
			},
			wantErr: apporder.ErrInsufficientStock,
		},
		{
			name: "unknown product on a later item",
			items: []apporder.PlaceOrderItem{
				{ProductID: "p1", Quantity: 2},
				{ProductID: "ghost", Quantity: 1},
			},
			wantErr: apporder.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.seed(t, "p1", "1", 5)
			f.seed(t, "p2", "1", 5)
			f.seed(t, "p3", "1", 1)

			_, err := f.uc.Execute(context.Background(), apporder.PlaceOrderInput{
				CustomerID:      "c-1",
				Items:           tt.items,
				ShippingAddress: shipTo,
			})
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, 5, f.stock(t, "p1"))
			assert.Equal(t, 5, f.stock(t, "p2"))
			assert.Equal(t, 1, f.stock(t, "p3"))

			n, err := f.orders.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestPlaceOrder_SaveFailureRestoresStock(t *testing.T) {
	f := newFixture(t, failingOrders{memory.NewOrderRepository()})
	f.seed(t, "p1", "1", 5)

	_, err := f.uc.Execute(context.Background(), apporder.PlaceOrderInput{
		CustomerID:      "c-1",
		Items:           []apporder.PlaceOrderItem{{ProductID: "p1", Quantity: 4}},
		ShippingAddress: shipTo,
	})
	require.ErrorIs(t, err, apporder.ErrRepository)
	assert.Equal(t, 5, f.stock(t, "p1"))
}

func TestPlaceOrder_PriceIsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.seed(t, "p1", "99.99", 10)
	f.seed(t, "p2", "0.01", 10)

	o, err := f.uc.Execute(ctx, apporder.PlaceOrderInput{
		CustomerID: "c-1",
		Items: []apporder.PlaceOrderItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
		ShippingAddress: shipTo,
	})
	require.NoError(t, err)

	p, err := f.products.Get(ctx, "p1")
	require.NoError(t, err)
	p.Price = decimal.NewFromInt(500)
	require.NoError(t, f.products.Update(ctx, p))

	stored, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("99.99").Equal(stored.Items[0].Price))

	sum := decimal.Zero
	for _, it := range stored.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, sum.Equal(stored.TotalAmount))
	assert.True(t, decimal.RequireFromString("200.01").Equal(stored.TotalAmount))
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "p1", "10", 5)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		start     = make(chan struct{})
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.uc.Execute(context.Background(), apporder.PlaceOrderInput{
				CustomerID:      "c-1",
				Items:           []apporder.PlaceOrderItem{{ProductID: "p1", Quantity: 3}},
				ShippingAddress: shipTo,
			})
			if err == nil {
				successes.Add(1)
			} else {
				assert.ErrorIs(t, err, apporder.ErrInsufficientStock)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, successes.Load())
	assert.Equal(t, 2, f.stock(t, "p1"))
}

func TestPlaceOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("queue full")
	f.seed(t, "p1", "10", 5)

	o, err := f.uc.Execute(context.Background(), apporder.PlaceOrderInput{
		CustomerID:      "c-1",
		Items:           []apporder.PlaceOrderItem{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: shipTo,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, 4, f.stock(t, "p1"))
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "p1", "10", 5)

	tests := []struct {
		name string
		in   apporder.PlaceOrderInput
	}{
		{"no customer", apporder.PlaceOrderInput{Items: []apporder.PlaceOrderItem{{ProductID: "p1", Quantity: 1}}, ShippingAddress: shipTo}},
		{"no items", apporder.PlaceOrderInput{CustomerID: "c-1", ShippingAddress: shipTo}},
		{"zero quantity", apporder.PlaceOrderInput{CustomerID: "c-1", Items: []apporder.PlaceOrderItem{{ProductID: "p1"}}, ShippingAddress: shipTo}},
		{"no product id", apporder.PlaceOrderInput{CustomerID: "c-1", Items: []apporder.PlaceOrderItem{{Quantity: 1}}, ShippingAddress: shipTo}},
		{"no address", apporder.PlaceOrderInput{CustomerID: "c-1", Items: []apporder.PlaceOrderItem{{ProductID: "p1", Quantity: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Execute(context.Background(), tt.in)
			assert.ErrorIs(t, err, application.ErrValidation)
		})
	}
	assert.Equal(t, 5, f.stock(t, "p1"))
}
