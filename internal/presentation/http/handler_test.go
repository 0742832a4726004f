package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/application"
	appbanner "github.com/Zhima-Mochi/storefront/internal/application/banner"
	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
	appcustomer "github.com/Zhima-Mochi/storefront/internal/application/customer"
	appdashboard "github.com/Zhima-Mochi/storefront/internal/application/dashboard"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/razorpay"
)

const (
	testAdminKey = "admin-key"
	testSecret   = "rzp-secret"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("id-%d", s.n.Add(1)) }

type testServer struct {
	srv      *httptest.Server
	products *memory.ProductRepository
	orders   *memory.OrderRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ids := &seqIDs{}
	products := memory.NewProductRepository()
	categories := memory.NewCategoryRepository()
	customers := memory.NewCustomerRepository()
	orders := memory.NewOrderRepository()
	txns := memory.NewTransactionRepository()
	tokens := auth.NewTokenManager("jwt-secret", time.Hour)

	placer := apporder.NewPlaceOrderUseCase(products, orders, memory.Transactor{}, ids, nil, nil)
	orderSvc := apporder.NewService(orders, customers, placer, nil)
	recorder := apppayment.NewRecordTransactionUseCase(txns, ids, nil)

	h := NewHandler(Services{
		Catalog:       appcatalog.NewService(products, categories, ids, nil),
		Customers:     appcustomer.NewService(customers, products, ids, auth.BcryptHasher{Cost: 4}, tokens, nil),
		Orders:        orderSvc,
		Payments:      apppayment.NewService(txns, nil, nil),
		VerifyPayment: apppayment.NewVerifyPaymentUseCase(razorpay.NewVerifier(testSecret), txns, placer, recorder, orderSvc, "INR", nil),
		Dashboard:     appdashboard.NewService(products, orders, customers, txns),
		Banners:       appbanner.NewService(memory.NewBannerRepository(), ids, nil),

		RecordTransaction: recorder,
	}, Options{Tokens: tokens, AdminKey: testAdminKey}, nil)

	ts := &testServer{srv: httptest.NewServer(h.Router()), products: products, orders: orders}
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func admin() []string { return []string{headerAdminKey, testAdminKey} }

func bearer(token string) []string { return []string{"Authorization", "Bearer " + token} }

func (ts *testServer) seedProduct(t *testing.T, sku string, stock int) string {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/admin/products", map[string]any{
		"sku": sku, "name": "Cake " + sku, "price": "249.50", "stock": stock, "category": "cakes",
	}, admin()...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["id"].(string)
}

func (ts *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/customers/signup", map[string]any{
		"email": email, "password": "password123", "first_name": "Asha",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["token"].(string)
}

func seedCategory(t *testing.T, ts *testServer) {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/admin/categories", map[string]any{"slug": "Cakes", "name": "Cakes"}, admin()...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "cakes", body["slug"])
}

var address = map[string]any{"line1": "1 Beach Rd", "city": "Goa", "zip": "403001", "country": "IN"}

func TestHealthEchoesRequestID(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/health", nil, headerRequestID, "rid-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rid-1", resp.Header.Get(headerRequestID))

	resp, _ = ts.do(t, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))
}

func TestAdminRoutesRequireKey(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/admin/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := ts.do(t, http.MethodGet, "/api/admin/dashboard", nil, admin()...)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["orders"])
}

func TestCatalogFlow(t *testing.T) {
	ts := newTestServer(t)
	seedCategory(t, ts)
	ts.seedProduct(t, "SKU-1", 5)

	resp, _ := ts.do(t, http.MethodPost, "/api/admin/products", map[string]any{
		"sku": "SKU-1", "name": "dup", "price": "1", "stock": 1, "category": "cakes",
	}, admin()...)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/admin/products", map[string]any{
		"sku": "SKU-2", "name": "x", "price": "1", "stock": 1, "category": "nope",
	}, admin()...)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/api/admin/products", map[string]any{
		"sku": "SKU-3", "name": "x", "price": "1", "stock": -1, "category": "cakes",
	}, admin()...)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "does not conform")

	resp, body = ts.do(t, http.MethodGet, "/api/products/SKU-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "249.5", body["price"])

	resp, _ = ts.do(t, http.MethodGet, "/api/products/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/products?q=cake&category=cakes", nil)
	require.NoError(t, err)
	raw, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	var list []map[string]any
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&list))
	assert.Len(t, list, 1)
}

func TestCustomerAuth(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "asha@example.com")

	resp, body := ts.do(t, http.MethodGet, "/api/customers/me", nil, bearer(token)...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "asha@example.com", body["email"])
	assert.NotContains(t, body, "password_hash")

	resp, _ = ts.do(t, http.MethodGet, "/api/customers/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/api/customers/me", nil, bearer("garbage")...)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/customers/signup", map[string]any{
		"email": "ASHA@example.com", "password": "password123", "first_name": "A",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/customers/login", map[string]any{"email": "asha@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, body = ts.do(t, http.MethodPost, "/api/customers/login", map[string]any{"email": "asha@example.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
}

func TestCartCheckoutDecrementsStock(t *testing.T) {
	ts := newTestServer(t)
	seedCategory(t, ts)
	pid := ts.seedProduct(t, "SKU-1", 5)
	token := ts.signup(t, "buyer@example.com")

	resp, body := ts.do(t, http.MethodPost, "/api/customers/me/cart", map[string]any{"product_id": pid, "quantity": 3}, bearer(token)...)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = ts.do(t, http.MethodPost, "/api/customers/me/checkout", map[string]any{"shipping_address": address}, bearer(token)...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "748.5", body["total_amount"])
	assert.Equal(t, "pending", body["status"])

	p, err := ts.products.Get(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)

	resp, body = ts.do(t, http.MethodGet, "/api/customers/me/cart", nil, bearer(token)...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["cart"])

	resp, _ = ts.do(t, http.MethodPost, "/api/customers/me/checkout", map[string]any{"shipping_address": address}, bearer(token)...)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	ts := newTestServer(t)
	seedCategory(t, ts)
	pid := ts.seedProduct(t, "SKU-1", 2)
	token := ts.signup(t, "buyer@example.com")

	resp, body := ts.do(t, http.MethodPost, "/api/orders", map[string]any{
		"items":            []map[string]any{{"product_id": pid, "quantity": 3}},
		"shipping_address": address,
	}, bearer(token)...)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "insufficient stock")

	p, err := ts.products.Get(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)
}

func TestAdminOrderStatus(t *testing.T) {
	ts := newTestServer(t)
	seedCategory(t, ts)
	pid := ts.seedProduct(t, "SKU-1", 5)
	token := ts.signup(t, "buyer@example.com")

	resp, order := ts.do(t, http.MethodPost, "/api/orders", map[string]any{
		"items":            []map[string]any{{"product_id": pid, "quantity": 1}},
		"shipping_address": address,
	}, bearer(token)...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, order)
	id := order["id"].(string)

	resp, body := ts.do(t, http.MethodPatch, "/api/admin/orders/"+id+"/status", map[string]any{"status": "delivered"}, admin()...)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "delivered", body["status"])

	resp, _ = ts.do(t, http.MethodPatch, "/api/admin/orders/"+id+"/status", map[string]any{"status": "lost"}, admin()...)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/admin/orders/missing", nil, admin()...)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/api/admin/dashboard", nil, admin()...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "249.5", body["sales_30d"])
}

func TestVerifyPayment(t *testing.T) {
	ts := newTestServer(t)
	seedCategory(t, ts)
	pid := ts.seedProduct(t, "SKU-1", 5)
	token := ts.signup(t, "buyer@example.com")

	payload := func(sig string) map[string]any {
		return map[string]any{
			"razorpay_order_id":   "order_1",
			"razorpay_payment_id": "pay_1",
			"razorpay_signature":  sig,
			"order": map[string]any{
				"items":            []map[string]any{{"product_id": pid, "quantity": 2}},
				"shipping_address": address,
			},
		}
	}

	resp, _ := ts.do(t, http.MethodPost, "/api/payments/razorpay/verify", payload("bad"), bearer(token)...)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	good := razorpay.Sign([]byte(testSecret), "order_1", "pay_1")
	resp, body := ts.do(t, http.MethodPost, "/api/payments/razorpay/verify", payload(good), bearer(token)...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	txn := body["transaction"].(map[string]any)
	assert.Equal(t, "successful", txn["status"])
	assert.Equal(t, "499", txn["amount"])

	resp, body = ts.do(t, http.MethodGet, "/api/admin/transactions/"+txn["id"].(string), nil, admin()...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pay_1", body["gateway_transaction_id"])

	p, err := ts.products.Get(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestVerifyPayment_ReplayIsConflict(t *testing.T) {
	ts := newTestServer(t)
	seedCategory(t, ts)
	pid := ts.seedProduct(t, "SKU-1", 5)
	token := ts.signup(t, "buyer@example.com")

	payload := map[string]any{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  razorpay.Sign([]byte(testSecret), "order_1", "pay_1"),
		"order": map[string]any{
			"items":            []map[string]any{{"product_id": pid, "quantity": 2}},
			"shipping_address": address,
		},
	}
	resp, body := ts.do(t, http.MethodPost, "/api/payments/razorpay/verify", payload, bearer(token)...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	resp, body = ts.do(t, http.MethodPost, "/api/payments/razorpay/verify", payload, bearer(token)...)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, body)
	assert.Nil(t, body["order"])

	p, err := ts.products.Get(context.Background(), pid)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	n, err := ts.orders.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecordTransaction_Admin(t *testing.T) {
	ts := newTestServer(t)
	payload := map[string]any{
		"order_id":               "o-1",
		"gateway_transaction_id": "pay_manual",
		"amount":                 "120.00",
		"currency":               "INR",
		"status":                 "successful",
		"raw_response":           map[string]any{"note": "entered from gateway dashboard"},
	}

	resp, _ := ts.do(t, http.MethodPost, "/api/admin/transactions", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/api/admin/transactions", payload, admin()...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "successful", body["status"])
	assert.Equal(t, "razorpay", body["gateway"])
	assert.Equal(t, "120", body["amount"])

	resp, body = ts.do(t, http.MethodGet, "/api/admin/transactions/"+body["id"].(string), nil, admin()...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pay_manual", body["gateway_transaction_id"])

	resp, _ = ts.do(t, http.MethodPost, "/api/admin/transactions", payload, admin()...)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	delete(payload, "order_id")
	resp, _ = ts.do(t, http.MethodPost, "/api/admin/transactions", payload, admin()...)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBanners(t *testing.T) {
	ts := newTestServer(t)
	banner := func(name string, order int, active bool) map[string]any {
		return map[string]any{
			"name": name, "title": "Fresh bakes", "subtitle": "Daily", "cta_text": "Order",
			"image_url": "https://cdn.example.com/" + name + ".jpg", "is_active": active, "order": order,
		}
	}

	resp, _ := ts.do(t, http.MethodPost, "/api/admin/banners", banner("spring", 1, true))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/api/admin/banners", banner("spring", 1, true), admin()...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	springID := body["id"].(string)
	assert.Equal(t, "#", body["link_url"])

	resp, _ = ts.do(t, http.MethodPost, "/api/admin/banners", banner("clash", 1, true), admin()...)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	noImage := banner("broken", 3, true)
	delete(noImage, "image_url")
	resp, _ = ts.do(t, http.MethodPost, "/api/admin/banners", noImage, admin()...)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, http.MethodPost, "/api/admin/banners", banner("draft", 0, false), admin()...)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	draftID := body["id"].(string)

	resp, _ = ts.do(t, http.MethodGet, "/api/banners/"+draftID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, body = ts.do(t, http.MethodGet, "/api/admin/banners/"+draftID, nil, admin()...)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_active"])

	resp, body = ts.do(t, http.MethodPut, "/api/admin/banners/"+draftID, map[string]any{"is_active": true}, admin()...)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "draft", body["name"])

	resp, body = ts.do(t, http.MethodGet, "/api/banners/"+draftID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["order"])

	resp, _ = ts.do(t, http.MethodPut, "/api/admin/banners/"+draftID, map[string]any{"order": 1}, admin()...)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, "/api/admin/banners/"+springID, nil, admin()...)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/api/banners/"+springID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"items":[{"product_id":"p1","quantity":2}],"shipping_address":{"line1":"a","city":"b","zip":"c","country":"IN"}}`, true},
		{"no items", `{"items":[],"shipping_address":{"line1":"a","city":"b","zip":"c","country":"IN"}}`, false},
		{"zero quantity", `{"items":[{"product_id":"p1","quantity":0}],"shipping_address":{"line1":"a","city":"b","zip":"c","country":"IN"}}`, false},
		{"missing address", `{"items":[{"product_id":"p1","quantity":1}]}`, false},
		{"not json", `{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSchema(placeOrderLoader, []byte(tt.body))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, application.ErrValidation)
		})
	}
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("boom")))
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("%w: down", apppayment.ErrGateway)))
	assert.Equal(t, http.StatusNotFound, statusFor(apporder.ErrProductNotFound))
}
