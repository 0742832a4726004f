package banner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("banner: not found")
	ErrConflict      = errors.New("banner: display order already taken")
	ErrInvalidBanner = errors.New("banner: invalid banner")
)

// DefaultLinkURL is used when a banner links nowhere.
const DefaultLinkURL = "#"

// Banner is a storefront hero slide. Order is its slot in the carousel and is unique.
type Banner struct {
	ID        string
	Name      string
	Title     string
	Subtitle  string
	CTAText   string
	ImageURL  string
	LinkURL   string
	IsActive  bool
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id string, b Banner) (*Banner, error) {
	b.ID = id
	if strings.TrimSpace(b.LinkURL) == "" {
		b.LinkURL = DefaultLinkURL
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	return &b, nil
}

func (b *Banner) Validate() error {
	required := []struct{ field, value string }{
		{"name", b.Name},
		{"title", b.Title},
		{"subtitle", b.Subtitle},
		{"cta text", b.CTAText},
		{"image url", b.ImageURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidBanner, r.field)
		}
	}
	if b.Order < 0 {
		return fmt.Errorf("%w: order must be >= 0", ErrInvalidBanner)
	}
	return nil
}

func (b *Banner) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

func (b *Banner) Clone() *Banner {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// ListFilter narrows List. Results always come back by Order ascending.
type ListFilter struct {
	ActiveOnly bool
}

type Repository interface {
	// Insert and Update return ErrConflict when another banner holds the same Order.
	Insert(ctx context.Context, b *Banner) error
	Get(ctx context.Context, id string) (*Banner, error)
	List(ctx context.Context, filter ListFilter) ([]*Banner, error)
	Update(ctx context.Context, b *Banner) error
	Delete(ctx context.Context, id string) error
}
