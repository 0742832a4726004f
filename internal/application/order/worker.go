package order

import (
	"context"
	"fmt"
	"time"

	domcustomer "github.com/Zhima-Mochi/storefront/internal/domain/customer"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	workerService        = "order-worker"
	useCaseRecordHistory = "order.worker.record_history"
	historySpanName      = "RecordOrderHistory"
)

// HistoryWorker appends newly created orders to the owning customer's order history.
type HistoryWorker struct {
	customers  domcustomer.Repository
	subscriber domoutbox.Subscriber
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewHistoryWorker(
	customers domcustomer.Repository,
	subscriber domoutbox.Subscriber,
	tel observability.Observability,
) *HistoryWorker {
	tel = observability.Or(tel)
	return &HistoryWorker{
		customers:    customers,
		subscriber:   subscriber,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (w *HistoryWorker) Start() {
	if w.subscriber == nil || w.customers == nil {
		return
	}
	w.subscriber.Subscribe(domain.EventOrderCreated, w.handleOrderCreated)
}

func (w *HistoryWorker) handleOrderCreated(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domain.OrderCreatedEvent)
	if !ok {
		w.count(useCaseRecordHistory, "ignored")
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, spanPrefix+historySpanName,
		attribute.String("use_case", useCaseRecordHistory),
		attribute.String("event", e.EventName()),
		attribute.String("order.id", evt.OrderID),
	)
	start := time.Now()
	outcome, status := "success", "OK"

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCaseRecordHistory),
		observability.F("order_id", evt.OrderID),
		observability.F("customer_id", evt.CustomerID),
	)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	ctx = logctx.With(ctx, logger)

	defer func() {
		lat := time.Since(start).Seconds()
		w.observe(useCaseRecordHistory, outcome, lat)

		logger.Info("use_case_done",
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
		)

		if outcome == "error" {
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	if err := w.customers.AppendOrderHistory(ctx, evt.CustomerID, evt.OrderID); err != nil {
		outcome, status = "error", "HISTORY_APPEND_FAILED"
		span.RecordError(err)
		return fmt.Errorf("worker: append order history: %w", err)
	}
	return nil
}

func (w *HistoryWorker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

func (w *HistoryWorker) observe(useCase string, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	w.durHistogram.Observe(latencySeconds,
		observability.L("use_case", useCase),
	)
}
