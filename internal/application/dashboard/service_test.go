package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()

	for i, stock := range []int{1, 50, 9, 10} {
		p, err := catalog.NewProduct(fmt.Sprintf("p%d", i), catalog.Product{
			SKU: fmt.Sprintf("S%d", i), Name: "n", Price: decimal.NewFromInt(1), Stock: stock, CategoryID: "c",
		})
		require.NoError(t, err)
		require.NoError(t, products.Insert(ctx, p))
	}

	addr := domorder.ShippingAddress{Line1: "l", City: "c", Zip: "z", Country: "IN"}
	mk := func(id string, price int64, status domorder.Status, age time.Duration) {
		o, err := domorder.New(id, "c-1", []domorder.Item{{ProductID: "p0", Quantity: 1, Price: decimal.NewFromInt(price)}}, addr)
		require.NoError(t, err)
		o.Status = status
		o.CreatedAt = time.Now().UTC().Add(-age)
		require.NoError(t, orders.Save(ctx, o))
	}
	mk("fresh-delivered", 100, domorder.StatusDelivered, time.Hour)
	mk("fresh-pending", 40, domorder.StatusPending, time.Hour)
	mk("old-delivered", 999, domorder.StatusDelivered, 40*24*time.Hour)

	svc := NewService(products, orders, memory.NewCustomerRepository(), memory.NewTransactionRepository())
	st, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 4, st.Products)
	assert.EqualValues(t, 3, st.Orders)
	assert.Zero(t, st.Customers)
	assert.True(t, decimal.NewFromInt(100).Equal(st.Sales30d))
	assert.Len(t, st.RecentOrders, 3)

	require.Len(t, st.LowStock, 2)
	assert.Equal(t, 1, st.LowStock[0].Stock)
	assert.Equal(t, 9, st.LowStock[1].Stock)
}
