package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	workerService      = "notification-worker"
	useCaseNotifyOrder = "notification.order_created"
	spanPrefix         = "UC."
	notifyPeer         = "ntfy"
	notifyEndpoint     = "publish"
	currencySymbol     = "₹"
)

// ErrNotConfigured is returned by a Notifier that has no destination.
var ErrNotConfigured = errors.New("notification: destination not configured")

type Message struct {
	Title    string
	Body     string
	Tags     []string
	Markdown bool
}

// Notifier pushes a message to an external channel.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Worker sends a push message for every created order. Failures are logged and dropped:
// order placement has already returned by the time this runs.
type Worker struct {
	notifier   Notifier
	subscriber domoutbox.Subscriber
	adminURL   string
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewWorker(notifier Notifier, subscriber domoutbox.Subscriber, adminURL string, tel observability.Observability) *Worker {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return &Worker{
		notifier:     notifier,
		subscriber:   subscriber,
		adminURL:     strings.TrimRight(adminURL, "/"),
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.notifier == nil {
		return
	}
	w.subscriber.Subscribe(domorder.EventOrderCreated, w.handleOrderCreated)
}

func (w *Worker) handleOrderCreated(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.OrderCreatedEvent)
	if !ok {
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, spanPrefix+"NotifyOrderCreated",
		attribute.String("use_case", useCaseNotifyOrder),
		attribute.String("order.id", evt.OrderID),
	)
	start := time.Now()
	outcome, status := "success", "OK"
	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCaseNotifyOrder),
		observability.F("order_id", evt.OrderID),
	)

	defer func() {
		lat := time.Since(start).Seconds()
		w.reqCounter.Add(1,
			observability.L("use_case", useCaseNotifyOrder),
			observability.L("outcome", outcome),
		)
		w.durHistogram.Observe(lat, observability.L("use_case", useCaseNotifyOrder))
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

	sendStart := time.Now()
	err := w.notifier.Notify(ctx, w.message(evt))
	switch {
	case err == nil:
		w.external("success", sendStart)
	case errors.Is(err, ErrNotConfigured):
		outcome, status = "skipped", "NOT_CONFIGURED"
		logger.Warn("notification_skipped", observability.F("reason", err.Error()))
	default:
		w.external("error", sendStart)
		outcome, status = "error", "NOTIFY_FAILED"
		span.RecordError(err)
		logger.Error("notification_failed", observability.F("error", err))
	}
	return nil
}

func (w *Worker) message(evt domorder.OrderCreatedEvent) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "**Order ID:** %s\n", evt.OrderID)
	fmt.Fprintf(&b, "**Items:** %d\n", evt.ItemCount)
	fmt.Fprintf(&b, "**Total:** %s%s\n", currencySymbol, evt.TotalAmount.StringFixed(2))
	if w.adminURL != "" {
		fmt.Fprintf(&b, "\n[View order](%s/orders/%s)", w.adminURL, evt.OrderID)
	}
	return Message{
		Title:    "New order received",
		Body:     b.String(),
		Tags:     []string{"tada", "cart"},
		Markdown: true,
	}
}

func (w *Worker) external(outcome string, start time.Time) {
	w.extCounter.Add(1,
		observability.L("peer", notifyPeer),
		observability.L("endpoint", notifyEndpoint),
		observability.L("outcome", outcome),
	)
	w.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", notifyPeer),
		observability.L("endpoint", notifyEndpoint),
	)
}
