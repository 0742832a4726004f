package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appbanner "github.com/Zhima-Mochi/storefront/internal/application/banner"
	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
	appcustomer "github.com/Zhima-Mochi/storefront/internal/application/customer"
	appdashboard "github.com/Zhima-Mochi/storefront/internal/application/dashboard"
	"github.com/Zhima-Mochi/storefront/internal/application/notification"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
	"github.com/Zhima-Mochi/storefront/internal/config"
	dombanner "github.com/Zhima-Mochi/storefront/internal/domain/banner"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domcustomer "github.com/Zhima-Mochi/storefront/internal/domain/customer"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/mongo"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/notify"
	infraobs "github.com/Zhima-Mochi/storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/razorpay"
	"github.com/Zhima-Mochi/storefront/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/storefront/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/storefront/internal/presentation/worker"
)

type stores struct {
	products     domcatalog.ProductRepository
	categories   domcatalog.CategoryRepository
	customers    domcustomer.Repository
	orders       domorder.Repository
	transactions dompayment.Repository
	banners      dombanner.Repository
	transactor   apporder.Transactor
	close        func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env, logging.Options{File: cfg.LogFile})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	metrics := prometrics.New("", "", nil).RegisterDefaults()
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), zaplogger.New(baseLogger), metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		systemLogger.Fatal("store_open_failed", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	systemLogger.Info("store_ready", zap.String("backend", cfg.StoreBackend))

	// In-process event bus; handlers run after the publishing request has returned.
	bus := outbox.NewBus(tel, outbox.WithHandlerContext(workerpresentation.EventHandlerContext(tel)))
	bus.Start(context.Background())

	idGenerator := id.NewUUIDGenerator()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	logger := tel.Logger()

	placer := apporder.NewPlaceOrderUseCase(st.products, st.orders, st.transactor, idGenerator, bus, tel)
	orderService := apporder.NewService(st.orders, st.customers, placer, logger)
	recorder := apppayment.NewRecordTransactionUseCase(st.transactions, idGenerator, tel)
	gateway := razorpay.NewClient(cfg.RazorpayAPIURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, nil)

	apporder.NewHistoryWorker(st.customers, bus, tel).Start()
	notifier := notify.NewNtfy(cfg.NtfyTopic, notify.WithRateLimit(cfg.NotifyRatePerSec, cfg.NotifyBurst))
	notification.NewWorker(notifier, bus, cfg.AdminPanelURL, tel).Start()

	handler := httppresentation.NewHandler(httppresentation.Services{
		Catalog:   appcatalog.NewService(st.products, st.categories, idGenerator, logger),
		Customers: appcustomer.NewService(st.customers, st.products, idGenerator, auth.BcryptHasher{}, tokens, logger),
		Orders:    orderService,
		Payments:  apppayment.NewService(st.transactions, gateway, tel),
		VerifyPayment: apppayment.NewVerifyPaymentUseCase(
			razorpay.NewVerifier(cfg.RazorpayKeySecret), st.transactions, placer, recorder, orderService, cfg.Currency, tel,
		),
		Dashboard:         appdashboard.NewService(st.products, st.orders, st.customers, st.transactions),
		Banners:           appbanner.NewService(st.banners, idGenerator, logger),
		RecordTransaction: recorder,
	}, httppresentation.Options{
		Tokens:   tokens,
		AdminKey: cfg.AdminAPIKey,
		Metrics:  promhttp.Handler(),
	}, tel)

	if cfg.AdminAPIKey == "" {
		systemLogger.Warn("admin_routes_unprotected")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}

	bus.Stop(shutdownCtx)
	if err := st.close(shutdownCtx); err != nil {
		systemLogger.Error("store_close_error", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreBackend == config.BackendMongo {
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Disconnect(ctx)
			return nil, err
		}
		return &stores{
			products:     store.Products(),
			categories:   store.Categories(),
			customers:    store.Customers(),
			orders:       store.Orders(),
			transactions: store.Transactions(),
			banners:      store.Banners(),
			transactor:   store.Transactor(cfg.MongoTransactions),
			close:        store.Disconnect,
		}, nil
	}

	return &stores{
		products:     memory.NewProductRepository(),
		categories:   memory.NewCategoryRepository(),
		customers:    memory.NewCustomerRepository(),
		orders:       memory.NewOrderRepository(),
		transactions: memory.NewTransactionRepository(),
		banners:      memory.NewBannerRepository(),
		transactor:   memory.Transactor{},
		close:        func(context.Context) error { return nil },
	}, nil
}
