package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/domain/customer"
	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

func TestCustomerRepository_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository()

	c1, err := customer.New("c-1", "a@example.com", "h", "A", "")
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, c1))

	c2, err := customer.New("c-2", "A@Example.com", "h", "B", "")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Insert(ctx, c2), customer.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, " A@EXAMPLE.COM ")
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.ID)

	require.NoError(t, repo.Delete(ctx, "c-1"))
	require.NoError(t, repo.Insert(ctx, c2))
}

func TestOrderRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	addr := order.ShippingAddress{Line1: "l", City: "c", Zip: "z", Country: "IN"}
	items := []order.Item{{ProductID: "p", Quantity: 1, Price: decimal.NewFromInt(1)}}

	for i, cust := range []string{"c-1", "c-2", "c-1"} {
		o, err := order.New(string(rune('a'+i)), cust, items, addr)
		require.NoError(t, err)
		o.CreatedAt = o.CreatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Save(ctx, o))
	}

	mine, err := repo.List(ctx, order.ListFilter{CustomerID: "c-1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "c", mine[0].ID)

	recent, err := repo.List(ctx, order.ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, recent, 1)

	o, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, o), order.ErrConflict)

	_, err = repo.FindByID(ctx, "zz")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestTransactionRepository_DuplicateGatewayID(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()

	newTx := func(id string) *payment.Transaction {
		tx, err := payment.NewTransaction(id, payment.Transaction{
			OrderID:              "o-1",
			GatewayTransactionID: "pay_1",
			Gateway:              payment.GatewayRazorpay,
			Amount:               decimal.NewFromInt(10),
			Currency:             "INR",
		})
		require.NoError(t, err)
		return tx
	}

	require.NoError(t, repo.Insert(ctx, newTx("t-1")))
	assert.ErrorIs(t, repo.Insert(ctx, newTx("t-2")), payment.ErrDuplicateTransaction)

	got, err := repo.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestTransactor_RunsFn(t *testing.T) {
	called := false
	err := Transactor{}.WithinTransaction(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
