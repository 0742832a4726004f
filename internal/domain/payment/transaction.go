package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound             = errors.New("payment: transaction not found")
	ErrDuplicateTransaction = errors.New("payment: gateway transaction already recorded")
	ErrInvalidSignature     = errors.New("payment: signature verification failed")
	ErrInvalidTransaction   = errors.New("payment: invalid transaction")
	ErrInvalidStatus        = errors.New("payment: unknown status")
)

const GatewayRazorpay = "razorpay"

type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StatusPending, nil
	case StatusPending, StatusSuccessful, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Transaction is a payment confirmation. Its status moves independently of the order it references.
type Transaction struct {
	ID                   string
	OrderID              string
	GatewayTransactionID string
	Gateway              string
	Amount               decimal.Decimal
	Currency             string
	Status               Status
	RawResponse          json.RawMessage
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func NewTransaction(id string, t Transaction) (*Transaction, error) {
	t.ID = id
	if t.Status == "" {
		t.Status = StatusPending
	}
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	switch {
	case t.OrderID == "":
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidTransaction)
	case t.GatewayTransactionID == "":
		return nil, fmt.Errorf("%w: gateway transaction id is required", ErrInvalidTransaction)
	case t.Gateway == "":
		return nil, fmt.Errorf("%w: gateway is required", ErrInvalidTransaction)
	case t.Amount.IsNegative():
		return nil, fmt.Errorf("%w: amount must be zero or greater", ErrInvalidTransaction)
	case t.Currency == "":
		return nil, fmt.Errorf("%w: currency is required", ErrInvalidTransaction)
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return nil, err
	}
	if len(t.RawResponse) > 0 && !json.Valid(t.RawResponse) {
		return nil, fmt.Errorf("%w: raw response must be json", ErrInvalidTransaction)
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return &t, nil
}

func (t *Transaction) SetStatus(status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	clone.RawResponse = append(json.RawMessage(nil), t.RawResponse...)
	return &clone
}

type Repository interface {
	// Insert fails with ErrDuplicateTransaction when the gateway transaction id is taken.
	Insert(ctx context.Context, t *Transaction) error
	Get(ctx context.Context, id string) (*Transaction, error)
	GetByGatewayID(ctx context.Context, gatewayTransactionID string) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	Count(ctx context.Context) (int64, error)
}
