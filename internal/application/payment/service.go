package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

const gatewayPeer = "razorpay"

// Service holds the transaction admin operations and the gateway order call.
type Service struct {
	repo    domain.Repository
	gateway Gateway
	log     observability.Logger

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewService(repo domain.Repository, gateway Gateway, tel observability.Observability) *Service {
	tel = observability.Or(tel)
	return &Service{
		repo:         repo,
		gateway:      gateway,
		log:          tel.Logger().With(observability.F("component", "payment_service")),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return txn, nil
}

// UpdateTransactionStatus changes only the transaction; the linked order is not consulted.
func (s *Service) UpdateTransactionStatus(ctx context.Context, id, status string) (*domain.Transaction, error) {
	if strings.TrimSpace(status) == "" {
		return nil, application.Invalid(errors.New("status is required"))
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, application.Invalid(err)
	}
	txn, err := s.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := txn.SetStatus(st); err != nil {
		return nil, application.Invalid(err)
	}
	if err := s.repo.Update(ctx, txn); err != nil {
		return nil, wrapRepositoryError(err)
	}

	logctx.FromOr(ctx, s.log).Info("transaction_status_updated",
		observability.F("transaction_id", txn.ID),
		observability.F("status", string(st)),
	)
	return txn, nil
}

// CreateGatewayOrder opens an order on the payment gateway for the client to pay against.
func (s *Service) CreateGatewayOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	if !req.Amount.IsPositive() {
		return nil, application.Invalid(errors.New("amount must be greater than zero"))
	}
	if req.Currency == "" {
		req.Currency = defaultCurrency
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: gateway not configured", ErrGateway)
	}

	start := time.Now()
	outcome := "success"
	order, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		outcome = "error"
	}
	s.extCounter.Add(1,
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", "orders.create"),
		observability.L("outcome", outcome),
	)
	s.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", "orders.create"),
	)
	if err != nil {
		logctx.FromOr(ctx, s.log).Error("gateway_order_failed", observability.F("error", err))
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	return order, nil
}
