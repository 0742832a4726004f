package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

type IDGenerator interface {
	NewID() string
}

// SignatureVerifier checks a gateway's payment signature for (gatewayOrderID, paymentID).
type SignatureVerifier interface {
	Verify(gatewayOrderID, paymentID, signature string) bool
}

type GatewayOrderRequest struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// GatewayOrder is the gateway-side order a client pays against.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway is the outbound port to the payment processor's order API.
type Gateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
}

// OrderLinker records the transaction id on the order it paid for.
type OrderLinker interface {
	AttachTransaction(ctx context.Context, orderID, transactionID string) error
}

// TransactionLookup finds the transaction already recorded for a gateway payment.
type TransactionLookup interface {
	GetByGatewayID(ctx context.Context, gatewayTransactionID string) (*domain.Transaction, error)
}

// OrderPlacer places orders and can take back one that must not stand.
type OrderPlacer interface {
	application.UseCase[apporder.PlaceOrderInput, *domorder.Order]
	Revert(ctx context.Context, order *domorder.Order) error
}
