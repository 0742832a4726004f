package httppresentation

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/storefront/internal/application"
	appbanner "github.com/Zhima-Mochi/storefront/internal/application/banner"
	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
	appcustomer "github.com/Zhima-Mochi/storefront/internal/application/customer"
	appdashboard "github.com/Zhima-Mochi/storefront/internal/application/dashboard"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
	dompayment "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	tracerName           = "storefront.http"
)

// TokenParser resolves a bearer token to the customer id it was issued for.
type TokenParser interface {
	Parse(token string) (string, error)
}

type Services struct {
	Catalog       *appcatalog.Service
	Customers     *appcustomer.Service
	Orders        *apporder.Service
	Payments      *apppayment.Service
	VerifyPayment application.UseCase[apppayment.VerifyPaymentInput, *apppayment.VerifyPaymentResult]
	Dashboard     *appdashboard.Service
	Banners       *appbanner.Service

	// RecordTransaction backs manual reconciliation from the admin routes.
	RecordTransaction application.UseCase[apppayment.RecordTransactionInput, *dompayment.Transaction]
}

type Options struct {
	Tokens TokenParser
	// AdminKey guards /api/admin routes through the X-Admin-Key header. Empty disables the check.
	AdminKey string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

type Handler struct {
	svc  Services
	opts Options
	log  observability.Logger
	tel  observability.Observability

	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewHandler(svc Services, opts Options, tel observability.Observability) *Handler {
	tel = observability.Or(tel)
	return &Handler{
		svc:          svc,
		opts:         opts,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:          tel,
		reqCounter:   tel.Metrics().Counter(observability.MHTTPRequests),
		durHistogram: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

type access int

const (
	public access = iota
	customerOnly
	adminOnly
)

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	h.handle(r, http.MethodGet, "/health", public, h.handleHealth)
	if h.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.opts.Metrics)
	}

	h.handle(r, http.MethodGet, "/api/products", public, h.handleListProducts)
	h.handle(r, http.MethodGet, "/api/products/{sku}", public, h.handleGetProductBySKU)
	h.handle(r, http.MethodGet, "/api/categories", public, h.handleListCategories)
	h.handle(r, http.MethodGet, "/api/categories/{slug}", public, h.handleGetCategory)
	h.handle(r, http.MethodGet, "/api/banners", public, h.handleListBanners)
	h.handle(r, http.MethodGet, "/api/banners/{id}", public, h.handleGetBanner)

	h.handle(r, http.MethodPost, "/api/customers/signup", public, h.handleSignup)
	h.handle(r, http.MethodPost, "/api/customers/login", public, h.handleLogin)
	h.handle(r, http.MethodGet, "/api/customers/me", customerOnly, h.handleGetMe)
	h.handle(r, http.MethodPut, "/api/customers/me", customerOnly, h.handleUpdateMe)
	h.handle(r, http.MethodDelete, "/api/customers/me", customerOnly, h.handleDeleteMe)
	h.handle(r, http.MethodGet, "/api/customers/me/cart", customerOnly, h.handleGetCart)
	h.handle(r, http.MethodPost, "/api/customers/me/cart", customerOnly, h.handleAddToCart)
	h.handle(r, http.MethodDelete, "/api/customers/me/cart", customerOnly, h.handleClearCart)
	h.handle(r, http.MethodPut, "/api/customers/me/cart/{productID}", customerOnly, h.handleSetCartQuantity)
	h.handle(r, http.MethodDelete, "/api/customers/me/cart/{productID}", customerOnly, h.handleRemoveFromCart)
	h.handle(r, http.MethodGet, "/api/customers/me/wishlist", customerOnly, h.handleGetWishlist)
	h.handle(r, http.MethodPost, "/api/customers/me/wishlist", customerOnly, h.handleAddToWishlist)
	h.handle(r, http.MethodDelete, "/api/customers/me/wishlist/{productID}", customerOnly, h.handleRemoveFromWishlist)
	h.handle(r, http.MethodPost, "/api/customers/me/checkout", customerOnly, h.handleCheckout)

	h.handle(r, http.MethodPost, "/api/orders", customerOnly, h.handlePlaceOrder)
	h.handle(r, http.MethodGet, "/api/orders/me", customerOnly, h.handleMyOrders)

	h.handle(r, http.MethodPost, "/api/payments/razorpay/order", customerOnly, h.handleCreateGatewayOrder)
	h.handle(r, http.MethodPost, "/api/payments/razorpay/verify", customerOnly, h.handleVerifyPayment)

	h.handle(r, http.MethodPost, "/api/admin/products", adminOnly, h.handleCreateProduct)
	h.handle(r, http.MethodGet, "/api/admin/products/{id}", adminOnly, h.handleGetProduct)
	h.handle(r, http.MethodPut, "/api/admin/products/{id}", adminOnly, h.handleUpdateProduct)
	h.handle(r, http.MethodDelete, "/api/admin/products/{id}", adminOnly, h.handleDeleteProduct)
	h.handle(r, http.MethodPost, "/api/admin/categories", adminOnly, h.handleCreateCategory)
	h.handle(r, http.MethodPut, "/api/admin/categories/{slug}", adminOnly, h.handleUpdateCategory)
	h.handle(r, http.MethodDelete, "/api/admin/categories/{slug}", adminOnly, h.handleDeleteCategory)
	h.handle(r, http.MethodGet, "/api/admin/banners", adminOnly, h.handleAdminListBanners)
	h.handle(r, http.MethodPost, "/api/admin/banners", adminOnly, h.handleCreateBanner)
	h.handle(r, http.MethodGet, "/api/admin/banners/{id}", adminOnly, h.handleAdminGetBanner)
	h.handle(r, http.MethodPut, "/api/admin/banners/{id}", adminOnly, h.handleUpdateBanner)
	h.handle(r, http.MethodDelete, "/api/admin/banners/{id}", adminOnly, h.handleDeleteBanner)
	h.handle(r, http.MethodGet, "/api/admin/customers", adminOnly, h.handleListCustomers)
	h.handle(r, http.MethodGet, "/api/admin/orders", adminOnly, h.handleListOrders)
	h.handle(r, http.MethodGet, "/api/admin/orders/{id}", adminOnly, h.handleGetOrder)
	h.handle(r, http.MethodPut, "/api/admin/orders/{id}", adminOnly, h.handleUpdateOrder)
	h.handle(r, http.MethodPatch, "/api/admin/orders/{id}/status", adminOnly, h.handleUpdateOrderStatus)
	h.handle(r, http.MethodGet, "/api/admin/orders/customer/{customerID}", adminOnly, h.handleOrdersByCustomer)
	h.handle(r, http.MethodPost, "/api/admin/transactions", adminOnly, h.handleRecordTransaction)
	h.handle(r, http.MethodGet, "/api/admin/transactions/{id}", adminOnly, h.handleGetTransaction)
	h.handle(r, http.MethodPatch, "/api/admin/transactions/{id}/status", adminOnly, h.handleUpdateTransactionStatus)
	h.handle(r, http.MethodGet, "/api/admin/dashboard", adminOnly, h.handleDashboard)

	return r
}

// handle wires one route as Trace → request logger → access log → HTTP metrics → auth → handler.
// The route template, not the raw path, labels spans and metrics.
func (h *Handler) handle(r chi.Router, method, pattern string, acc access, fn http.HandlerFunc) {
	route := method + " " + pattern

	var inner http.Handler = fn
	switch acc {
	case customerOnly:
		inner = h.requireCustomer(inner)
	case adminOnly:
		inner = h.requireAdmin(inner)
	}

	chain := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			h.tel,
		)(
			h.withAccessLog(
				h.withHTTPMetrics(inner),
			),
		),
	)

	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		chain.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), route)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace starts a server span, continuing a W3C parent when the caller sent one.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(tracerName)
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		ctxWithSpan, span := tracer.Start(parentCtx, route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctxWithSpan))

		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

// withHTTPMetrics records request count and latency on instruments created once in NewHandler.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.reqCounter.Add(1, labels...)
		h.durHistogram.Observe(time.Since(start).Seconds(), labels...)
	})
}

type routeKey struct{}

func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
