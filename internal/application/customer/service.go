package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/customer"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

const minPasswordLength = 8

var (
	ErrNotFound           = domain.ErrNotFound
	ErrEmailTaken         = domain.ErrEmailTaken
	ErrInvalidCredentials = domain.ErrInvalidCredentials
	ErrRepository         = errors.New("customer: repository failure")
)

type Service struct {
	repo     domain.Repository
	products domcatalog.ProductRepository
	ids      IDGenerator
	hasher   PasswordHasher
	tokens   TokenIssuer
	now      func() time.Time
	log      observability.Logger
}

func NewService(
	repo domain.Repository,
	products domcatalog.ProductRepository,
	ids IDGenerator,
	hasher PasswordHasher,
	tokens TokenIssuer,
	logger observability.Logger,
) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo:     repo,
		products: products,
		ids:      ids,
		hasher:   hasher,
		tokens:   tokens,
		now:      time.Now,
		log:      logger.With(observability.F("component", "customer_service")),
	}
}

type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthResult is returned by sign-up and login.
type AuthResult struct {
	Customer *domain.Customer
	Token    string
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if len(in.Password) < minPasswordLength {
		return nil, newValidation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("customer: hash password: %w", err)
	}

	c, err := domain.New(s.ids.NewID(), in.Email, hash, in.FirstName, in.LastName)
	if err != nil {
		return nil, application.Invalid(err)
	}
	c.Phone = strings.TrimSpace(in.Phone)

	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, wrapRepositoryError(err)
	}
	token, err := s.tokens.Issue(c.ID)
	if err != nil {
		return nil, fmt.Errorf("customer: issue token: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("customer_signed_up", observability.F("customer_id", c.ID))
	return &AuthResult{Customer: c, Token: token}, nil
}

// Login answers ErrInvalidCredentials for both an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	logger := logctx.FromOr(ctx, s.log)

	c, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	if err := s.hasher.Compare(c.PasswordHash, password); err != nil {
		logger.Info("customer_login_rejected", observability.F("customer_id", c.ID))
		return nil, ErrInvalidCredentials
	}
	if !c.IsActive {
		return nil, domain.ErrInactive
	}

	c.MarkLoggedIn(s.now())
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, wrapRepositoryError(err)
	}
	token, err := s.tokens.Issue(c.ID)
	if err != nil {
		return nil, fmt.Errorf("customer: issue token: %w", err)
	}

	logger.Info("customer_logged_in", observability.F("customer_id", c.ID))
	return &AuthResult{Customer: c, Token: token}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Customer, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return list, nil
}

// UpdateProfileInput carries optional profile changes; nil means unchanged.
type UpdateProfileInput struct {
	FirstName         *string
	LastName          *string
	Phone             *string
	Password          *string
	ShippingAddresses []domain.Address
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*domain.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, newValidation("first name cannot be empty")
		}
		c.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		c.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, newValidation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("customer: hash password: %w", err)
		}
		c.PasswordHash = hash
	}
	if in.ShippingAddresses != nil {
		c.ShippingAddresses = append([]domain.Address(nil), in.ShippingAddresses...)
	}
	return c, s.save(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapRepositoryError(err)
	}
	logctx.FromOr(ctx, s.log).Info("customer_deleted", observability.F("customer_id", id))
	return nil
}

// AddToCart checks the product exists but reserves nothing.
func (s *Service) AddToCart(ctx context.Context, customerID, productID string, quantity int) (*domain.Customer, error) {
	if quantity == 0 {
		quantity = 1
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, customerID, func(c *domain.Customer) error {
		return c.AddToCart(productID, quantity)
	})
}

func (s *Service) SetCartQuantity(ctx context.Context, customerID, productID string, quantity int) (*domain.Customer, error) {
	return s.mutate(ctx, customerID, func(c *domain.Customer) error {
		return c.SetCartQuantity(productID, quantity)
	})
}

func (s *Service) RemoveFromCart(ctx context.Context, customerID, productID string) (*domain.Customer, error) {
	return s.mutate(ctx, customerID, func(c *domain.Customer) error {
		return c.RemoveFromCart(productID)
	})
}

func (s *Service) ClearCart(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.mutate(ctx, customerID, func(c *domain.Customer) error {
		c.ClearCart()
		return nil
	})
}

func (s *Service) AddToWishlist(ctx context.Context, customerID, productID string) (*domain.Customer, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, customerID, func(c *domain.Customer) error {
		return c.AddToWishlist(productID)
	})
}

func (s *Service) RemoveFromWishlist(ctx context.Context, customerID, productID string) (*domain.Customer, error) {
	return s.mutate(ctx, customerID, func(c *domain.Customer) error {
		c.RemoveFromWishlist(productID)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, customerID string, fn func(c *domain.Customer) error) (*domain.Customer, error) {
	c, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		if errors.Is(err, domain.ErrItemNotInCart) {
			return nil, err
		}
		return nil, application.Invalid(err)
	}
	return c, s.save(ctx, c)
}

func (s *Service) save(ctx context.Context, c *domain.Customer) error {
	if err := s.repo.Update(ctx, c); err != nil {
		return wrapRepositoryError(err)
	}
	return nil
}

func (s *Service) requireProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return newValidation("product id is required")
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		if errors.Is(err, domcatalog.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return nil
}

func wrapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrEmailTaken):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

func newValidation(msg string) error {
	return application.Invalid(errors.New(msg))
}
