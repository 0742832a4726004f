package banner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/banner"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrConflict   = domain.ErrConflict
	ErrRepository = errors.New("banner: repository failure")
)

type IDGenerator interface {
	NewID() string
}

// Service manages the storefront carousel. Shoppers only ever see active banners.
type Service struct {
	repo domain.Repository
	ids  IDGenerator
	log  observability.Logger
}

func NewService(repo domain.Repository, ids IDGenerator, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo: repo,
		ids:  ids,
		log:  logger.With(observability.F("component", "banner_service")),
	}
}

// Input carries a create or a partial update. On update, empty strings and nil pointers keep
// the stored value.
type Input struct {
	Name     string
	Title    string
	Subtitle string
	CTAText  string
	ImageURL string
	LinkURL  string
	IsActive *bool
	Order    *int
}

// Create requires Order; IsActive defaults to true.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Banner, error) {
	if in.Order == nil {
		return nil, application.Invalid(fmt.Errorf("%w: order is required", domain.ErrInvalidBanner))
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	b, err := domain.New(s.ids.NewID(), domain.Banner{
		Name:     strings.TrimSpace(in.Name),
		Title:    strings.TrimSpace(in.Title),
		Subtitle: strings.TrimSpace(in.Subtitle),
		CTAText:  strings.TrimSpace(in.CTAText),
		ImageURL: strings.TrimSpace(in.ImageURL),
		LinkURL:  strings.TrimSpace(in.LinkURL),
		IsActive: active,
		Order:    *in.Order,
	})
	if err != nil {
		return nil, application.Invalid(err)
	}
	if err := s.repo.Insert(ctx, b); err != nil {
		return nil, wrapRepositoryError(err)
	}
	logctx.FromOr(ctx, s.log).Info("banner_created",
		observability.F("banner_id", b.ID),
		observability.F("order", b.Order),
	)
	return b, nil
}

// Get returns any banner; it backs the admin surface.
func (s *Service) Get(ctx context.Context, id string) (*domain.Banner, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return b, nil
}

// GetActive hides inactive banners as not found.
func (s *Service) GetActive(ctx context.Context, id string) (*domain.Banner, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*domain.Banner, error) {
	list, err := s.repo.List(ctx, domain.ListFilter{ActiveOnly: activeOnly})
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return list, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Banner, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	keep := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	keep(&b.Name, in.Name)
	keep(&b.Title, in.Title)
	keep(&b.Subtitle, in.Subtitle)
	keep(&b.CTAText, in.CTAText)
	keep(&b.ImageURL, in.ImageURL)
	keep(&b.LinkURL, in.LinkURL)
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	if in.Order != nil {
		b.Order = *in.Order
	}
	if err := b.Validate(); err != nil {
		return nil, application.Invalid(err)
	}
	b.Touch()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, wrapRepositoryError(err)
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapRepositoryError(err)
	}
	logctx.FromOr(ctx, s.log).Info("banner_deleted", observability.F("banner_id", id))
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
