package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService      = "order-service"
	useCasePlaceOrder = "order.place"
	spanPrefix        = "UC."
	publishPeer       = "outbox"
	publishEndpoint   = domain.EventOrderCreated
	publishTimeout    = 300 * time.Millisecond
)

var (
	ErrConflict          = domain.ErrConflict
	ErrNotFound          = domain.ErrNotFound
	ErrProductNotFound   = domcatalog.ErrNotFound
	ErrInsufficientStock = domcatalog.ErrInsufficientStock
	ErrRepository        = errors.New("order: repository failure")
)

type PlaceOrderItem struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	CustomerID      string
	Items           []PlaceOrderItem
	ShippingAddress domain.ShippingAddress
}

// PlaceOrderUseCase takes stock for every item and persists the order as one unit:
// either all decrements and the order insert stick, or none do.
type PlaceOrderUseCase struct {
	products    domcatalog.ProductRepository
	orders      domain.Repository
	transactor  Transactor
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	tel         observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	pubFailures  observability.Counter   // event_publish_failed_total{event}
	compensated  observability.Counter   // stock_compensations_total{outcome}
}

func NewPlaceOrderUseCase(
	products domcatalog.ProductRepository,
	orders domain.Repository,
	transactor Transactor,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *PlaceOrderUseCase {
	tel = observability.Or(tel)
	metrics := tel.Metrics()

	return &PlaceOrderUseCase{
		products:     products,
		orders:       orders,
		transactor:   transactor,
		idGenerator:  idGen,
		publisher:    publisher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
		pubFailures:  metrics.Counter(observability.MEventPublishFailures),
		compensated:  metrics.Counter(observability.MStockCompensations),
	}
}

// Execute places the order. Items are processed in input order.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCasePlaceOrder))

	var entity *domain.Order
	var publishErr error

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCasePlaceOrder),
		attribute.String("order.customer_id", cmd.CustomerID),
		attribute.Int("order.item_count", len(cmd.Items)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCasePlaceOrder),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCasePlaceOrder),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("customer_id", cmd.CustomerID),
		}
		if entity != nil {
			fields = append(fields,
				observability.F("order_id", entity.ID),
				observability.F("total_amount", entity.TotalAmount.String()),
			)
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if code, verr := validatePlaceOrder(cmd); verr != nil {
		outcome, statusText = "error", code
		return nil, verr
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	err = uc.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		placed, code, perr := uc.place(txCtx, logger, cmd)
		if perr != nil {
			statusText = code
			return perr
		}
		entity = placed
		return nil
	})
	if err != nil {
		outcome = "error"
		if statusText == "OK" {
			statusText = "TRANSACTION_FAILED"
		}
		entity = nil
		return nil, err
	}

	publishErr = uc.publishCreated(ctx, logger, entity)
	if publishErr != nil {
		statusText = "EVENT_PUBLISH_FAILED"
	}

	span.SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.String("order.status", string(entity.Status)),
	)
	span.AddEvent("order.created",
		trace.WithAttributes(attribute.String("order.id", entity.ID)),
	)
	return entity, nil
}

type takenStock struct {
	productID string
	quantity  int
}

// place runs once per transaction attempt, so the compensation list is scoped to the attempt.
func (uc *PlaceOrderUseCase) place(ctx context.Context, logger observability.Logger, cmd PlaceOrderInput) (*domain.Order, string, error) {
	taken := make([]takenStock, 0, len(cmd.Items))
	items := make([]domain.Item, 0, len(cmd.Items))

	fail := func(code string, cause error) (*domain.Order, string, error) {
		if cerr := uc.compensate(ctx, logger, taken); cerr != nil {
			return nil, "STOCK_COMPENSATION_FAILED", errors.Join(cause, cerr)
		}
		return nil, code, cause
	}

	for _, it := range cmd.Items {
		product, derr := uc.products.DecrementStock(ctx, it.ProductID, it.Quantity)
		switch {
		case derr == nil:
		case errors.Is(derr, domcatalog.ErrNotFound):
			return fail("PRODUCT_NOT_FOUND", fmt.Errorf("%w: product %s", ErrProductNotFound, it.ProductID))
		case errors.Is(derr, domcatalog.ErrInsufficientStock):
			return fail("INSUFFICIENT_STOCK", fmt.Errorf("%w: product %s", ErrInsufficientStock, it.ProductID))
		default:
			return fail("STOCK_DECREMENT_FAILED", wrapRepositoryError(derr))
		}
		taken = append(taken, takenStock{productID: it.ProductID, quantity: it.Quantity})
		items = append(items, domain.Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     product.Price,
		})
	}

	entity, derr := domain.New(uc.idGenerator.NewID(), cmd.CustomerID, items, cmd.ShippingAddress)
	if derr != nil {
		return fail("DOMAIN_CONSTRUCTION_FAILED", fmt.Errorf("order: construct: %w", derr))
	}
	if serr := uc.orders.Save(ctx, entity); serr != nil {
		return fail("REPO_SAVE_FAILED", wrapRepositoryError(serr))
	}
	return entity, "OK", nil
}

// compensate gives back stock in reverse order. It keeps going past individual failures
// so one bad restore does not strand the rest.
func (uc *PlaceOrderUseCase) compensate(ctx context.Context, logger observability.Logger, taken []takenStock) error {
	if len(taken) == 0 {
		return nil
	}
	// Restores must run even when the caller has gone away.
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(taken) - 1; i >= 0; i-- {
		t := taken[i]
		if err := uc.products.RestoreStock(ctx, t.productID, t.quantity); err != nil {
			uc.compensated.Add(1, observability.L("outcome", "error"))
			logger.Error("stock_compensation_failed",
				observability.F("product_id", t.productID),
				observability.F("quantity", t.quantity),
				observability.F("error", err),
			)
			errs = append(errs, fmt.Errorf("restore %s: %w", t.productID, err))
			continue
		}
		uc.compensated.Add(1, observability.L("outcome", "success"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: stock compensation: %w", ErrRepository, errors.Join(errs...))
	}
	logger.Warn("stock_compensated", observability.F("items", len(taken)))
	return nil
}

// Revert undoes a placed order that must not stand: its stock goes back and it is marked
// cancelled. A cancelled order is left alone.
func (uc *PlaceOrderUseCase) Revert(ctx context.Context, entity *domain.Order) error {
	if entity == nil || entity.Status == domain.StatusCancelled {
		return nil
	}
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCasePlaceOrder),
		observability.F("order_id", entity.ID),
	)

	taken := make([]takenStock, 0, len(entity.Items))
	for _, it := range entity.Items {
		taken = append(taken, takenStock{productID: it.ProductID, quantity: it.Quantity})
	}
	if err := uc.compensate(ctx, logger, taken); err != nil {
		return err
	}

	if err := entity.SetStatus(domain.StatusCancelled); err != nil {
		return err
	}
	if err := uc.orders.Update(context.WithoutCancel(ctx), entity); err != nil {
		return wrapRepositoryError(err)
	}
	logger.Warn("order_reverted")
	return nil
}

func (uc *PlaceOrderUseCase) publishCreated(ctx context.Context, logger observability.Logger, entity *domain.Order) error {
	if uc.publisher == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	pubStart := time.Now()
	pubOutcome := "success"
	err := uc.publisher.Publish(pubCtx, domain.NewOrderCreatedEvent(entity))
	if err != nil {
		pubOutcome = "error"
		uc.pubFailures.Add(1, observability.L("event", domain.EventOrderCreated))
		logger.Warn("event_publish_failed",
			observability.F("event", domain.EventOrderCreated),
			observability.F("order_id", entity.ID),
			observability.F("error", err),
		)
	}

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
		observability.L("outcome", pubOutcome),
	)
	uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
	)
	return err
}

func validatePlaceOrder(cmd PlaceOrderInput) (string, error) {
	if strings.TrimSpace(cmd.CustomerID) == "" {
		return "CUSTOMER_ID_REQUIRED", newValidation("customer id is required")
	}
	if len(cmd.Items) == 0 {
		return "ITEMS_REQUIRED", newValidation("at least one item is required")
	}
	for i, it := range cmd.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return "PRODUCT_ID_REQUIRED", newValidation(fmt.Sprintf("items[%d]: product id is required", i))
		}
		if it.Quantity <= 0 {
			return "QUANTITY_INVALID", newValidation(fmt.Sprintf("items[%d]: quantity must be greater than zero", i))
		}
	}
	if err := cmd.ShippingAddress.Validate(); err != nil {
		return "ADDRESS_INVALID", application.Invalid(err)
	}
	return "", nil
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

func newValidation(msg string) error {
	return application.Invalid(errors.New(msg))
}
