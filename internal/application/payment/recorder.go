package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService           = "payment-service"
	useCaseRecordTransaction = "payment.record_transaction"
	spanPrefix               = "UC."
)

var (
	ErrNotFound             = domain.ErrNotFound
	ErrDuplicateTransaction = domain.ErrDuplicateTransaction
	ErrInvalidSignature     = domain.ErrInvalidSignature
	ErrRepository           = errors.New("payment: repository failure")
	ErrGateway              = errors.New("payment: gateway failure")
)

type RecordTransactionInput struct {
	OrderID              string
	GatewayTransactionID string
	Gateway              string
	Amount               decimal.Decimal
	Currency             string
	Status               domain.Status
	RawResponse          json.RawMessage
}

// RecordTransactionUseCase stores a payment confirmation. It never touches the order's status.
type RecordTransactionUseCase struct {
	repo        domain.Repository
	idGenerator IDGenerator
	tel         observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewRecordTransactionUseCase(repo domain.Repository, idGen IDGenerator, tel observability.Observability) *RecordTransactionUseCase {
	tel = observability.Or(tel)
	return &RecordTransactionUseCase{
		repo:         repo,
		idGenerator:  idGen,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", paymentService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (uc *RecordTransactionUseCase) Execute(ctx context.Context, cmd RecordTransactionInput) (_ *domain.Transaction, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseRecordTransaction))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"RecordTransaction",
		attribute.String("use_case", useCaseRecordTransaction),
		attribute.String("payment.order_id", cmd.OrderID),
		attribute.String("payment.gateway", cmd.Gateway),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var txnID string

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
			observability.L("use_case", useCaseRecordTransaction),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseRecordTransaction))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("order_id", cmd.OrderID),
			observability.F("gateway_transaction_id", cmd.GatewayTransactionID),
		}
		if txnID != "" {
			fields = append(fields, observability.F("transaction_id", txnID))
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

	txn, derr := domain.NewTransaction(uc.idGenerator.NewID(), domain.Transaction{
		OrderID:              cmd.OrderID,
		GatewayTransactionID: cmd.GatewayTransactionID,
		Gateway:              cmd.Gateway,
		Amount:               cmd.Amount,
		Currency:             cmd.Currency,
		Status:               cmd.Status,
		RawResponse:          cmd.RawResponse,
	})
	if derr != nil {
		outcome, statusText = "error", "TRANSACTION_INVALID"
		return nil, application.Invalid(derr)
	}

	if ierr := uc.repo.Insert(ctx, txn); ierr != nil {
		outcome = "error"
		if errors.Is(ierr, domain.ErrDuplicateTransaction) {
			statusText = "DUPLICATE_TRANSACTION"
			return nil, ierr
		}
		statusText = "REPO_INSERT_FAILED"
		return nil, wrapRepositoryError(ierr)
	}

	txnID = txn.ID
	span.SetAttributes(attribute.String("payment.transaction_id", txn.ID))
	return txn, nil
}

func wrapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrDuplicateTransaction):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}
