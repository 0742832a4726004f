package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrConflict        = errors.New("order: already exists")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount   = errors.New("order: amount must be zero or greater")
	ErrNoItems         = errors.New("order: at least one item is required")
	ErrInvalidStatus   = errors.New("order: unknown status")
	ErrInvalidAddress  = errors.New("order: incomplete shipping address")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

type ShippingAddress struct {
	Line1   string
	Line2   string
	City    string
	State   string
	Zip     string
	Country string
}

func (a ShippingAddress) Validate() error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.Zip) == "" {
		missing = append(missing, "zip")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidAddress, strings.Join(missing, ", "))
	}
	return nil
}

// Item holds the unit price captured when stock was taken, not a live product reference.
type Item struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              string
	CustomerID      string
	Items           []Item
	TotalAmount     decimal.Decimal
	ShippingAddress ShippingAddress
	Status          Status
	TransactionID   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds a pending order whose total is the sum of the item subtotals.
func New(id, customerID string, items []Item, address ShippingAddress) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if item.Price.IsNegative() {
			return nil, ErrInvalidAmount
		}
		total = total.Add(item.Subtotal())
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		CustomerID:      customerID,
		Items:           append([]Item(nil), items...),
		TotalAmount:     total,
		ShippingAddress: address,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// SetStatus accepts any known status from any current status.
func (o *Order) SetStatus(status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	o.Status = status
	o.touch()
	return nil
}

func (o *Order) SetShippingAddress(address ShippingAddress) error {
	if err := address.Validate(); err != nil {
		return err
	}
	o.ShippingAddress = address
	o.touch()
	return nil
}

// AttachTransaction links a recorded payment without changing the status.
func (o *Order) AttachTransaction(transactionID string) {
	o.TransactionID = transactionID
	o.touch()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
