package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("catalog: not found")
	ErrConflict          = errors.New("catalog: already exists")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrInvalidProduct    = errors.New("catalog: invalid product")
	ErrInvalidCategory   = errors.New("catalog: invalid category")
)

type Dietary string

const (
	DietaryVeg    Dietary = "veg"
	DietaryNonVeg Dietary = "non-veg"
	DietaryNone   Dietary = "none"
)

// ParseDietary defaults an empty value to veg.
func ParseDietary(s string) (Dietary, error) {
	switch d := Dietary(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DietaryVeg, nil
	case DietaryVeg, DietaryNonVeg, DietaryNone:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown dietary tag %q", ErrInvalidProduct, s)
	}
}

type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Tags        []string
	Price       decimal.Decimal
	Stock       int
	Weight      float64
	Images      []string
	CategoryID  string
	Attributes  map[string]string
	Dietary     Dietary
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct stamps timestamps and defaults on p after validating it.
func NewProduct(id string, p Product) (*Product, error) {
	p.ID = id
	if p.Dietary == "" {
		p.Dietary = DietaryVeg
	}
	if p.Attributes == nil {
		p.Attributes = map[string]string{}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return &p, nil
}

func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.SKU) == "":
		return fmt.Errorf("%w: sku is required", ErrInvalidProduct)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must be zero or greater", ErrInvalidProduct)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock must be zero or greater", ErrInvalidProduct)
	case p.Weight < 0:
		return fmt.Errorf("%w: weight must be zero or greater", ErrInvalidProduct)
	case strings.TrimSpace(p.CategoryID) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	}
	if _, err := ParseDietary(string(p.Dietary)); err != nil {
		return err
	}
	return nil
}

// Deduct removes quantity from stock, refusing to go below zero.
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return ErrInsufficientStock
	}
	p.Stock -= quantity
	p.Touch()
	return nil
}

// Restock returns quantity to stock.
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.Stock += quantity
	p.Touch()
	return nil
}

// Matches reports whether the query appears in the name, a tag, or the description (case-insensitive).
func (p *Product) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func (p *Product) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Tags = append([]string(nil), p.Tags...)
	clone.Images = append([]string(nil), p.Images...)
	if p.Attributes != nil {
		clone.Attributes = make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			clone.Attributes[k] = v
		}
	}
	return &clone
}
