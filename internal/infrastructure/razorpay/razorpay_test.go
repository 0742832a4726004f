package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
)

func TestVerifier(t *testing.T) {
	v := NewVerifier("s3cret")
	good := Sign([]byte("s3cret"), "order_1", "pay_1")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		sig       string
		want      bool
	}{
		{"valid", "order_1", "pay_1", good, true},
		{"tampered payment", "order_1", "pay_2", good, false},
		{"wrong secret", "order_1", "pay_1", Sign([]byte("other"), "order_1", "pay_1"), false},
		{"empty signature", "order_1", "pay_1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Verify(tt.orderID, tt.paymentID, tt.sig))
		})
	}

	assert.False(t, NewVerifier("").Verify("order_1", "pay_1", good))
}

func TestClient_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var body createOrderBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(49950), body.Amount)
		assert.Equal(t, "INR", body.Currency)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_X","amount":49950,"currency":"INR","receipt":"r-1","status":"created"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/", "key", "secret", srv.Client())
	got, err := c.CreateOrder(context.Background(), apppayment.GatewayOrderRequest{
		Amount: decimal.RequireFromString("499.50"), Currency: "INR", Receipt: "r-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_X", got.ID)
	assert.Equal(t, int64(49950), got.Amount)
	assert.Equal(t, "created", got.Status)
}

func TestClient_CreateOrderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key", "secret", nil).CreateOrder(context.Background(), apppayment.GatewayOrderRequest{
		Amount: decimal.NewFromInt(1), Currency: "INR",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient("", "", "", nil).CreateOrder(context.Background(), apppayment.GatewayOrderRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
