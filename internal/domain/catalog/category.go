package catalog

import (
	"fmt"
	"strings"
	"time"
)

type Category struct {
	ID          string
	Slug        string
	Name        string
	Images      []string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCategory(id string, c Category) (*Category, error) {
	c.ID = id
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return &c, nil
}

func (c *Category) Validate() error {
	if c.Slug == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidCategory)
	}
	if strings.ContainsAny(c.Slug, " /?#") {
		return fmt.Errorf("%w: slug must be url friendly", ErrInvalidCategory)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}
	return nil
}

func (c *Category) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Images = append([]string(nil), c.Images...)
	return &clone
}
