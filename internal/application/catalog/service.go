package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrConflict   = domain.ErrConflict
	ErrRepository = errors.New("catalog: repository failure")
)

type IDGenerator interface {
	NewID() string
}

// Service is the catalog admin and storefront read surface.
type Service struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	ids        IDGenerator
	log        observability.Logger
}

func NewService(products domain.ProductRepository, categories domain.CategoryRepository, ids IDGenerator, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		products:   products,
		categories: categories,
		ids:        ids,
		log:        logger.With(observability.F("component", "catalog_service")),
	}
}

// ProductInput names its category by slug.
type ProductInput struct {
	SKU          string
	Name         string
	Description  string
	Tags         []string
	Price        decimal.Decimal
	Stock        int
	Weight       float64
	Images       []string
	CategorySlug string
	Attributes   map[string]string
	Dietary      string
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	p, err := s.buildProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	created, err := domain.NewProduct(s.ids.NewID(), *p)
	if err != nil {
		return nil, application.Invalid(err)
	}
	if err := s.products.Insert(ctx, created); err != nil {
		return nil, wrapRepositoryError(err)
	}

	logctx.FromOr(ctx, s.log).Info("product_created",
		observability.F("product_id", created.ID),
		observability.F("sku", created.SKU),
	)
	return created, nil
}

// UpdateProduct replaces the editable fields of an existing product.
// Stock set here races with order placement; the last writer wins.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.buildProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	if next.Dietary == "" {
		next.Dietary = domain.DietaryVeg
	}
	if err := next.Validate(); err != nil {
		return nil, application.Invalid(err)
	}
	next.Touch()
	if err := s.products.Update(ctx, next); err != nil {
		return nil, wrapRepositoryError(err)
	}
	return next, nil
}

func (s *Service) buildProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	dietary, err := domain.ParseDietary(in.Dietary)
	if err != nil {
		return nil, application.Invalid(err)
	}
	categoryID := ""
	if slug := strings.TrimSpace(in.CategorySlug); slug != "" {
		cat, err := s.categories.GetBySlug(ctx, strings.ToLower(slug))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, newValidation(fmt.Sprintf("unknown category %q", slug))
		}
		if err != nil {
			return nil, wrapRepositoryError(err)
		}
		categoryID = cat.ID
	}
	return &domain.Product{
		SKU:         strings.TrimSpace(in.SKU),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Tags:        in.Tags,
		Price:       in.Price,
		Stock:       in.Stock,
		Weight:      in.Weight,
		Images:      in.Images,
		CategoryID:  categoryID,
		Attributes:  in.Attributes,
		Dietary:     dietary,
	}, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return p, nil
}

func (s *Service) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	p, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return p, nil
}

// ListProducts filters by free-text query and, when given, category slug.
func (s *Service) ListProducts(ctx context.Context, query, categorySlug string) ([]*domain.Product, error) {
	filter := domain.ProductFilter{Query: query}
	if categorySlug != "" {
		cat, err := s.categories.GetBySlug(ctx, strings.ToLower(categorySlug))
		if err != nil {
			return nil, wrapRepositoryError(err)
		}
		filter.CategoryID = cat.ID
	}
	list, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return list, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return wrapRepositoryError(err)
	}
	logctx.FromOr(ctx, s.log).Info("product_deleted", observability.F("product_id", id))
	return nil
}

type CategoryInput struct {
	Slug        string
	Name        string
	Images      []string
	Description string
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	c, err := domain.NewCategory(s.ids.NewID(), domain.Category{
		Slug:        in.Slug,
		Name:        strings.TrimSpace(in.Name),
		Images:      in.Images,
		Description: in.Description,
	})
	if err != nil {
		return nil, application.Invalid(err)
	}
	if err := s.categories.Insert(ctx, c); err != nil {
		return nil, wrapRepositoryError(err)
	}
	logctx.FromOr(ctx, s.log).Info("category_created", observability.F("slug", c.Slug))
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, slug string) (*domain.Category, error) {
	c, err := s.categories.GetBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return list, nil
}

// UpdateCategory keeps the slug; it is the category's public key.
func (s *Service) UpdateCategory(ctx context.Context, slug string, in CategoryInput) (*domain.Category, error) {
	c, err := s.GetCategory(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Images = in.Images
	c.Description = in.Description
	if err := c.Validate(); err != nil {
		return nil, application.Invalid(err)
	}
	c.Touch()
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, wrapRepositoryError(err)
	}
	return c, nil
}

// DeleteCategory does not touch products that reference it.
func (s *Service) DeleteCategory(ctx context.Context, slug string) error {
	if err := s.categories.DeleteBySlug(ctx, strings.ToLower(slug)); err != nil {
		return wrapRepositoryError(err)
	}
	logctx.FromOr(ctx, s.log).Info("category_deleted", observability.F("slug", slug))
	return nil
}

func wrapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrConflict):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

func newValidation(msg string) error {
	return application.Invalid(errors.New(msg))
}
