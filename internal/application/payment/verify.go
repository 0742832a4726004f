package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCaseVerifyPayment = "payment.verify"
	defaultCurrency      = "INR"
)

type VerifyPaymentInput struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
	Order          apporder.PlaceOrderInput
	// RawResponse is stored verbatim on the transaction.
	RawResponse json.RawMessage
}

type VerifyPaymentResult struct {
	Order       *domorder.Order
	Transaction *domain.Transaction
}

// VerifyPaymentUseCase turns a verified gateway callback into an order plus its transaction.
// Nothing is written when the signature does not match or the payment is already recorded.
type VerifyPaymentUseCase struct {
	verifier     SignatureVerifier
	transactions TransactionLookup
	placer       OrderPlacer
	recorder     application.UseCase[RecordTransactionInput, *domain.Transaction]
	linker       OrderLinker
	currency     string
	tel          observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewVerifyPaymentUseCase(
	verifier SignatureVerifier,
	transactions TransactionLookup,
	placer OrderPlacer,
	recorder application.UseCase[RecordTransactionInput, *domain.Transaction],
	linker OrderLinker,
	currency string,
	tel observability.Observability,
) *VerifyPaymentUseCase {
	tel = observability.Or(tel)
	if currency == "" {
		currency = defaultCurrency
	}
	return &VerifyPaymentUseCase{
		verifier:     verifier,
		transactions: transactions,
		placer:       placer,
		recorder:     recorder,
		linker:       linker,
		currency:     currency,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", paymentService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (uc *VerifyPaymentUseCase) Execute(ctx context.Context, cmd VerifyPaymentInput) (_ *VerifyPaymentResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseVerifyPayment))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"VerifyPayment",
		attribute.String("use_case", useCaseVerifyPayment),
		attribute.String("payment.gateway_order_id", cmd.GatewayOrderID),
		attribute.String("payment.payment_id", cmd.PaymentID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	result := &VerifyPaymentResult{}

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
			observability.L("use_case", useCaseVerifyPayment),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseVerifyPayment))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("payment_id", cmd.PaymentID),
		}
		if result.Order != nil {
			fields = append(fields, observability.F("order_id", result.Order.ID))
		}
		if result.Transaction != nil {
			fields = append(fields, observability.F("transaction_id", result.Transaction.ID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if strings.TrimSpace(cmd.GatewayOrderID) == "" || strings.TrimSpace(cmd.PaymentID) == "" || cmd.Signature == "" {
		outcome, statusText = "error", "PAYMENT_FIELDS_REQUIRED"
		return nil, application.Invalid(errors.New("gateway order id, payment id and signature are required"))
	}
	if !uc.verifier.Verify(cmd.GatewayOrderID, cmd.PaymentID, cmd.Signature) {
		outcome, statusText = "error", "INVALID_SIGNATURE"
		return nil, ErrInvalidSignature
	}
	span.AddEvent("payment.signature_verified")

	existing, lerr := uc.transactions.GetByGatewayID(ctx, cmd.PaymentID)
	switch {
	case lerr == nil:
		outcome, statusText = "error", "DUPLICATE_PAYMENT"
		return nil, fmt.Errorf("%w: payment %s belongs to order %s", ErrDuplicateTransaction, cmd.PaymentID, existing.OrderID)
	case !errors.Is(lerr, domain.ErrNotFound):
		outcome, statusText = "error", "TRANSACTION_LOOKUP_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, lerr)
	}

	order, perr := uc.placer.Execute(ctx, cmd.Order)
	if perr != nil {
		outcome, statusText = "error", "ORDER_PLACEMENT_FAILED"
		return nil, perr
	}
	result.Order = order

	raw := cmd.RawResponse
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	txn, rerr := uc.recorder.Execute(ctx, RecordTransactionInput{
		OrderID:              order.ID,
		GatewayTransactionID: cmd.PaymentID,
		Gateway:              domain.GatewayRazorpay,
		Amount:               order.TotalAmount,
		Currency:             uc.currency,
		Status:               domain.StatusSuccessful,
		RawResponse:          raw,
	})
	if errors.Is(rerr, ErrDuplicateTransaction) {
		// A concurrent callback for the same payment recorded first; this order is the extra one.
		outcome, statusText = "error", "DUPLICATE_PAYMENT"
		result.Order = nil
		if verr := uc.placer.Revert(ctx, order); verr != nil {
			statusText = "ORDER_REVERT_FAILED"
			return nil, errors.Join(rerr, fmt.Errorf("payment: revert order %s: %w", order.ID, verr))
		}
		return nil, rerr
	}
	if rerr != nil {
		// The order stands; the admin records the transaction by hand.
		outcome, statusText = "error", "TRANSACTION_RECORD_FAILED"
		return result, fmt.Errorf("payment: order %s placed but transaction not recorded: %w", order.ID, rerr)
	}
	result.Transaction = txn

	if uc.linker != nil {
		if lerr := uc.linker.AttachTransaction(ctx, order.ID, txn.ID); lerr != nil {
			statusText = "ORDER_LINK_FAILED"
			logger.Warn("order_transaction_link_failed",
				observability.F("order_id", order.ID),
				observability.F("transaction_id", txn.ID),
				observability.F("error", lerr),
			)
		} else {
			order.AttachTransaction(txn.ID)
		}
	}
	return result, nil
}
