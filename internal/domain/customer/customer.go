package customer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound           = errors.New("customer: not found")
	ErrEmailTaken         = errors.New("customer: email already registered")
	ErrInvalidCredentials = errors.New("customer: invalid credentials")
	ErrInactive           = errors.New("customer: account inactive")
	ErrInvalidCustomer    = errors.New("customer: invalid customer")
	ErrInvalidQuantity    = errors.New("customer: quantity must be greater than zero")
	ErrItemNotInCart      = errors.New("customer: product not in cart")
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type Address struct {
	Line1   string
	Line2   string
	City    string
	State   string
	Zip     string
	Country string
}

type CartItem struct {
	ProductID string
	Quantity  int
}

type Customer struct {
	ID                string
	Email             string
	PasswordHash      string
	FirstName         string
	LastName          string
	Phone             string
	ShippingAddresses []Address
	Cart              []CartItem
	Wishlist          []string
	OrderHistory      []string
	IsActive          bool
	LastLoginAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizeEmail trims and lower-cases an address; uniqueness is checked on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func New(id, email, passwordHash, firstName, lastName string) (*Customer, error) {
	email = NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidCustomer)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidCustomer)
	}
	if strings.TrimSpace(firstName) == "" {
		return nil, fmt.Errorf("%w: first name is required", ErrInvalidCustomer)
	}

	now := time.Now().UTC()
	return &Customer{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AddToCart merges quantity into an existing line or appends a new one.
func (c *Customer) AddToCart(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidCustomer)
	}
	for i := range c.Cart {
		if c.Cart[i].ProductID == productID {
			c.Cart[i].Quantity += quantity
			c.touch()
			return nil
		}
	}
	c.Cart = append(c.Cart, CartItem{ProductID: productID, Quantity: quantity})
	c.touch()
	return nil
}

func (c *Customer) SetCartQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Cart {
		if c.Cart[i].ProductID == productID {
			c.Cart[i].Quantity = quantity
			c.touch()
			return nil
		}
	}
	return ErrItemNotInCart
}

func (c *Customer) RemoveFromCart(productID string) error {
	for i := range c.Cart {
		if c.Cart[i].ProductID == productID {
			c.Cart = append(c.Cart[:i], c.Cart[i+1:]...)
			c.touch()
			return nil
		}
	}
	return ErrItemNotInCart
}

func (c *Customer) ClearCart() {
	c.Cart = nil
	c.touch()
}

// AddToWishlist is idempotent.
func (c *Customer) AddToWishlist(productID string) error {
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidCustomer)
	}
	for _, id := range c.Wishlist {
		if id == productID {
			return nil
		}
	}
	c.Wishlist = append(c.Wishlist, productID)
	c.touch()
	return nil
}

func (c *Customer) RemoveFromWishlist(productID string) {
	for i, id := range c.Wishlist {
		if id == productID {
			c.Wishlist = append(c.Wishlist[:i], c.Wishlist[i+1:]...)
			c.touch()
			return
		}
	}
}

// RecordOrder appends orderID to the order history once.
func (c *Customer) RecordOrder(orderID string) {
	for _, id := range c.OrderHistory {
		if id == orderID {
			return
		}
	}
	c.OrderHistory = append(c.OrderHistory, orderID)
	c.touch()
}

func (c *Customer) MarkLoggedIn(at time.Time) {
	at = at.UTC()
	c.LastLoginAt = &at
	c.touch()
}

func (c *Customer) Deactivate() {
	c.IsActive = false
	c.touch()
}

func (c *Customer) touch() {
	c.UpdatedAt = time.Now().UTC()
}

func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	clone := *c
	clone.ShippingAddresses = append([]Address(nil), c.ShippingAddresses...)
	clone.Cart = append([]CartItem(nil), c.Cart...)
	clone.Wishlist = append([]string(nil), c.Wishlist...)
	clone.OrderHistory = append([]string(nil), c.OrderHistory...)
	if c.LastLoginAt != nil {
		at := *c.LastLoginAt
		clone.LastLoginAt = &at
	}
	return &clone
}
