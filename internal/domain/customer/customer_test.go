package customer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomer(t *testing.T) *Customer {
	t.Helper()
	c, err := New("c-1", "  Jane@Example.COM ", "hash", "Jane", "Doe")
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	c := newCustomer(t)
	assert.Equal(t, "jane@example.com", c.Email)
	assert.True(t, c.IsActive)

	_, err := New("c-2", "not-an-email", "hash", "Jane", "")
	assert.ErrorIs(t, err, ErrInvalidCustomer)

	_, err = New("c-3", "a@b.co", "", "Jane", "")
	assert.ErrorIs(t, err, ErrInvalidCustomer)
}

func TestCart(t *testing.T) {
	c := newCustomer(t)

	require.NoError(t, c.AddToCart("p-1", 2))
	require.NoError(t, c.AddToCart("p-1", 1))
	require.NoError(t, c.AddToCart("p-2", 1))
	assert.Equal(t, []CartItem{{"p-1", 3}, {"p-2", 1}}, c.Cart)

	assert.ErrorIs(t, c.AddToCart("p-3", 0), ErrInvalidQuantity)

	require.NoError(t, c.SetCartQuantity("p-2", 4))
	assert.Equal(t, 4, c.Cart[1].Quantity)
	assert.ErrorIs(t, c.SetCartQuantity("p-9", 1), ErrItemNotInCart)

	require.NoError(t, c.RemoveFromCart("p-1"))
	assert.Equal(t, []CartItem{{"p-2", 4}}, c.Cart)
	assert.ErrorIs(t, c.RemoveFromCart("p-1"), ErrItemNotInCart)

	c.ClearCart()
	assert.Empty(t, c.Cart)
}

func TestWishlistAndOrderHistory(t *testing.T) {
	c := newCustomer(t)

	require.NoError(t, c.AddToWishlist("p-1"))
	require.NoError(t, c.AddToWishlist("p-1"))
	assert.Equal(t, []string{"p-1"}, c.Wishlist)
	c.RemoveFromWishlist("p-1")
	assert.Empty(t, c.Wishlist)

	c.RecordOrder("o-1")
	c.RecordOrder("o-1")
	assert.Equal(t, []string{"o-1"}, c.OrderHistory)
}

func TestClone(t *testing.T) {
	c := newCustomer(t)
	require.NoError(t, c.AddToCart("p-1", 1))
	c.MarkLoggedIn(time.Now())

	clone := c.Clone()
	clone.Cart[0].Quantity = 9
	*clone.LastLoginAt = time.Time{}

	assert.Equal(t, 1, c.Cart[0].Quantity)
	assert.False(t, c.LastLoginAt.IsZero())
}
