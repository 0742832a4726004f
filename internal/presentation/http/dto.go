package httppresentation

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	appdashboard "github.com/Zhima-Mochi/storefront/internal/application/dashboard"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domcustomer "github.com/Zhima-Mochi/storefront/internal/domain/customer"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

type productResponse struct {
	ID          string            `json:"id"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	Stock       int               `json:"stock"`
	Weight      float64           `json:"weight,omitempty"`
	Images      []string          `json:"images,omitempty"`
	CategoryID  string            `json:"category_id"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Dietary     string            `json:"dietary"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func newProductResponse(p *domcatalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Tags:        p.Tags,
		Price:       p.Price,
		Stock:       p.Stock,
		Weight:      p.Weight,
		Images:      p.Images,
		CategoryID:  p.CategoryID,
		Attributes:  p.Attributes,
		Dietary:     string(p.Dietary),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newProductList(ps []*domcatalog.Product) []productResponse {
	out := make([]productResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, newProductResponse(p))
	}
	return out
}

type categoryResponse struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Images      []string  `json:"images,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newCategoryResponse(c *domcatalog.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Images:      c.Images,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type addressBody struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

func (a addressBody) shipping() domorder.ShippingAddress { return domorder.ShippingAddress(a) }

type cartItemBody struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// customerResponse never carries the password hash.
type customerResponse struct {
	ID                string         `json:"id"`
	Email             string         `json:"email"`
	FirstName         string         `json:"first_name"`
	LastName          string         `json:"last_name"`
	Phone             string         `json:"phone,omitempty"`
	ShippingAddresses []addressBody  `json:"shipping_addresses"`
	Cart              []cartItemBody `json:"cart"`
	Wishlist          []string       `json:"wishlist"`
	OrderHistory      []string       `json:"order_history"`
	IsActive          bool           `json:"is_active"`
	LastLoginAt       *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

func newCustomerResponse(c *domcustomer.Customer) customerResponse {
	out := customerResponse{
		ID:                c.ID,
		Email:             c.Email,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		Phone:             c.Phone,
		ShippingAddresses: make([]addressBody, 0, len(c.ShippingAddresses)),
		Cart:              newCart(c.Cart),
		Wishlist:          append([]string{}, c.Wishlist...),
		OrderHistory:      append([]string{}, c.OrderHistory...),
		IsActive:          c.IsActive,
		LastLoginAt:       c.LastLoginAt,
		CreatedAt:         c.CreatedAt,
	}
	for _, a := range c.ShippingAddresses {
		out.ShippingAddresses = append(out.ShippingAddresses, addressBody(a))
	}
	return out
}

func newCart(items []domcustomer.CartItem) []cartItemBody {
	out := make([]cartItemBody, 0, len(items))
	for _, it := range items {
		out = append(out, cartItemBody(it))
	}
	return out
}

type orderItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customer_id"`
	Items           []orderItemResponse `json:"items"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ShippingAddress addressBody         `json:"shipping_address"`
	Status          string              `json:"status"`
	TransactionID   string              `json:"transaction_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func newOrderResponse(o *domorder.Order) orderResponse {
	out := orderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		Items:           make([]orderItemResponse, 0, len(o.Items)),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: addressBody(o.ShippingAddress),
		Status:          string(o.Status),
		TransactionID:   o.TransactionID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, orderItemResponse(it))
	}
	return out
}

func newOrderList(orders []*domorder.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o))
	}
	return out
}

type transactionResponse struct {
	ID                   string          `json:"id"`
	OrderID              string          `json:"order_id"`
	GatewayTransactionID string          `json:"gateway_transaction_id"`
	Gateway              string          `json:"gateway"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Status               string          `json:"status"`
	RawResponse          json.RawMessage `json:"raw_response,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func newTransactionResponse(t *dompayment.Transaction) transactionResponse {
	return transactionResponse{
		ID:                   t.ID,
		OrderID:              t.OrderID,
		GatewayTransactionID: t.GatewayTransactionID,
		Gateway:              t.Gateway,
		Amount:               t.Amount,
		Currency:             t.Currency,
		Status:               string(t.Status),
		RawResponse:          t.RawResponse,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

type dashboardResponse struct {
	Products     int64             `json:"products"`
	Orders       int64             `json:"orders"`
	Customers    int64             `json:"customers"`
	Transactions int64             `json:"transactions"`
	Sales30d     decimal.Decimal   `json:"sales_30d"`
	RecentOrders []orderResponse   `json:"recent_orders"`
	LowStock     []productResponse `json:"low_stock"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

func newDashboardResponse(s *appdashboard.Stats) dashboardResponse {
	return dashboardResponse{
		Products:     s.Products,
		Orders:       s.Orders,
		Customers:    s.Customers,
		Transactions: s.Transactions,
		Sales30d:     s.Sales30d,
		RecentOrders: newOrderList(s.RecentOrders),
		LowStock:     newProductList(s.LowStock),
		GeneratedAt:  s.GeneratedAt,
	}
}
