package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domcustomer "github.com/Zhima-Mochi/storefront/internal/domain/customer"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

// Service covers the order reads and admin updates around PlaceOrderUseCase.
type Service struct {
	repo      domain.Repository
	customers domcustomer.Repository
	placer    application.UseCase[PlaceOrderInput, *domain.Order]
	log       observability.Logger
}

func NewService(
	repo domain.Repository,
	customers domcustomer.Repository,
	placer application.UseCase[PlaceOrderInput, *domain.Order],
	logger observability.Logger,
) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo:      repo,
		customers: customers,
		placer:    placer,
		log:       logger.With(observability.F("component", "order_service")),
	}
}

func (s *Service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error) {
	return s.placer.Execute(ctx, input)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, newValidation("order id is required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return orders, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	if customerID == "" {
		return nil, newValidation("customer id is required")
	}
	return s.List(ctx, domain.ListFilter{CustomerID: customerID})
}

// UpdateStatus sets any known status regardless of the current one.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, application.Invalid(err)
	}
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := order.Status
	if err := order.SetStatus(st); err != nil {
		return nil, application.Invalid(err)
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, wrapRepositoryError(err)
	}

	logctx.FromOr(ctx, s.log).Info("order_status_updated",
		observability.F("order_id", order.ID),
		observability.F("from", string(previous)),
		observability.F("to", string(st)),
	)
	return order, nil
}

// UpdateOrderInput carries the fields an admin may change; nil means unchanged.
type UpdateOrderInput struct {
	ShippingAddress *domain.ShippingAddress
	Status          *string
	TransactionID   *string
}

func (s *Service) Update(ctx context.Context, id string, input UpdateOrderInput) (*domain.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.ShippingAddress != nil {
		if err := order.SetShippingAddress(*input.ShippingAddress); err != nil {
			return nil, application.Invalid(err)
		}
	}
	if input.Status != nil {
		st, err := domain.ParseStatus(*input.Status)
		if err != nil {
			return nil, application.Invalid(err)
		}
		if err := order.SetStatus(st); err != nil {
			return nil, application.Invalid(err)
		}
	}
	if input.TransactionID != nil {
		order.AttachTransaction(*input.TransactionID)
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, wrapRepositoryError(err)
	}
	return order, nil
}

// AttachTransaction links a recorded payment to its order. The order status is left alone.
func (s *Service) AttachTransaction(ctx context.Context, orderID, transactionID string) error {
	_, err := s.Update(ctx, orderID, UpdateOrderInput{TransactionID: &transactionID})
	return err
}

// Checkout places an order from the customer's cart and empties the cart once the order exists.
// A failure to clear the cart is logged; the order stands.
func (s *Service) Checkout(ctx context.Context, customerID string, address domain.ShippingAddress) (*domain.Order, error) {
	if customerID == "" {
		return nil, newValidation("customer id is required")
	}
	cust, err := s.customers.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, domcustomer.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if len(cust.Cart) == 0 {
		return nil, newValidation("cart is empty")
	}

	items := make([]PlaceOrderItem, 0, len(cust.Cart))
	for _, it := range cust.Cart {
		items = append(items, PlaceOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := s.placer.Execute(ctx, PlaceOrderInput{
		CustomerID:      customerID,
		Items:           items,
		ShippingAddress: address,
	})
	if err != nil {
		return nil, err
	}

	cust.ClearCart()
	if err := s.customers.Update(ctx, cust); err != nil {
		logctx.FromOr(ctx, s.log).Warn("cart_clear_failed",
			observability.F("customer_id", customerID),
			observability.F("order_id", order.ID),
			observability.F("error", err),
		)
	}
	return order, nil
}
