package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	dombanner "github.com/Zhima-Mochi/storefront/internal/domain/banner"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domcustomer "github.com/Zhima-Mochi/storefront/internal/domain/customer"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

// Money is stored as Decimal128 so totals stay exact in aggregation.
func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("mongo: encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("mongo: decode decimal %s: %w", v, err)
	}
	return d, nil
}

type productDoc struct {
	ID          string               `bson:"_id"`
	SKU         string               `bson:"sku"`
	Name        string               `bson:"name"`
	Description string               `bson:"description,omitempty"`
	Tags        []string             `bson:"tags,omitempty"`
	Price       primitive.Decimal128 `bson:"price"`
	Stock       int                  `bson:"stock"`
	Weight      float64              `bson:"weight,omitempty"`
	Images      []string             `bson:"images,omitempty"`
	CategoryID  string               `bson:"category_id"`
	Attributes  map[string]string    `bson:"attributes,omitempty"`
	Dietary     string               `bson:"dietary"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newProductDoc(p *domcatalog.Product) (*productDoc, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	return &productDoc{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Tags:        p.Tags,
		Price:       price,
		Stock:       p.Stock,
		Weight:      p.Weight,
		Images:      p.Images,
		CategoryID:  p.CategoryID,
		Attributes:  p.Attributes,
		Dietary:     string(p.Dietary),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (d *productDoc) toDomain() (*domcatalog.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	return &domcatalog.Product{
		ID:          d.ID,
		SKU:         d.SKU,
		Name:        d.Name,
		Description: d.Description,
		Tags:        d.Tags,
		Price:       price,
		Stock:       d.Stock,
		Weight:      d.Weight,
		Images:      d.Images,
		CategoryID:  d.CategoryID,
		Attributes:  d.Attributes,
		Dietary:     domcatalog.Dietary(d.Dietary),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

type categoryDoc struct {
	ID          string    `bson:"_id"`
	Slug        string    `bson:"slug"`
	Name        string    `bson:"name"`
	Images      []string  `bson:"images,omitempty"`
	Description string    `bson:"description,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func newCategoryDoc(c *domcatalog.Category) *categoryDoc {
	return &categoryDoc{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Images:      c.Images,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (d *categoryDoc) toDomain() *domcatalog.Category {
	return &domcatalog.Category{
		ID:          d.ID,
		Slug:        d.Slug,
		Name:        d.Name,
		Images:      d.Images,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type bannerDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Title     string    `bson:"title"`
	Subtitle  string    `bson:"subtitle"`
	CTAText   string    `bson:"cta_text"`
	ImageURL  string    `bson:"image_url"`
	LinkURL   string    `bson:"link_url"`
	IsActive  bool      `bson:"is_active"`
	Order     int       `bson:"order"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newBannerDoc(b *dombanner.Banner) *bannerDoc {
	return &bannerDoc{
		ID:        b.ID,
		Name:      b.Name,
		Title:     b.Title,
		Subtitle:  b.Subtitle,
		CTAText:   b.CTAText,
		ImageURL:  b.ImageURL,
		LinkURL:   b.LinkURL,
		IsActive:  b.IsActive,
		Order:     b.Order,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (d *bannerDoc) toDomain() *dombanner.Banner {
	return &dombanner.Banner{
		ID:        d.ID,
		Name:      d.Name,
		Title:     d.Title,
		Subtitle:  d.Subtitle,
		CTAText:   d.CTAText,
		ImageURL:  d.ImageURL,
		LinkURL:   d.LinkURL,
		IsActive:  d.IsActive,
		Order:     d.Order,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type addressDoc struct {
	Line1   string `bson:"line1"`
	Line2   string `bson:"line2,omitempty"`
	City    string `bson:"city"`
	State   string `bson:"state,omitempty"`
	Zip     string `bson:"zip"`
	Country string `bson:"country"`
}

type cartItemDoc struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

type customerDoc struct {
	ID                string        `bson:"_id"`
	Email             string        `bson:"email"`
	PasswordHash      string        `bson:"password_hash"`
	FirstName         string        `bson:"first_name"`
	LastName          string        `bson:"last_name"`
	Phone             string        `bson:"phone,omitempty"`
	ShippingAddresses []addressDoc  `bson:"shipping_addresses"`
	Cart              []cartItemDoc `bson:"cart"`
	Wishlist          []string      `bson:"wishlist"`
	OrderHistory      []string      `bson:"order_history"`
	IsActive          bool          `bson:"is_active"`
	LastLoginAt       *time.Time    `bson:"last_login_at,omitempty"`
	CreatedAt         time.Time     `bson:"created_at"`
	UpdatedAt         time.Time     `bson:"updated_at"`
}

func newCustomerDoc(c *domcustomer.Customer) *customerDoc {
	d := &customerDoc{
		ID:                c.ID,
		Email:             c.Email,
		PasswordHash:      c.PasswordHash,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		Phone:             c.Phone,
		ShippingAddresses: make([]addressDoc, 0, len(c.ShippingAddresses)),
		Cart:              make([]cartItemDoc, 0, len(c.Cart)),
		Wishlist:          append([]string{}, c.Wishlist...),
		OrderHistory:      append([]string{}, c.OrderHistory...),
		IsActive:          c.IsActive,
		LastLoginAt:       c.LastLoginAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	for _, a := range c.ShippingAddresses {
		d.ShippingAddresses = append(d.ShippingAddresses, addressDoc(a))
	}
	for _, it := range c.Cart {
		d.Cart = append(d.Cart, cartItemDoc(it))
	}
	return d
}

func (d *customerDoc) toDomain() *domcustomer.Customer {
	c := &domcustomer.Customer{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Phone:        d.Phone,
		Wishlist:     d.Wishlist,
		OrderHistory: d.OrderHistory,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if d.LastLoginAt != nil {
		t := d.LastLoginAt.UTC()
		c.LastLoginAt = &t
	}
	for _, a := range d.ShippingAddresses {
		c.ShippingAddresses = append(c.ShippingAddresses, domcustomer.Address(a))
	}
	for _, it := range d.Cart {
		c.Cart = append(c.Cart, domcustomer.CartItem(it))
	}
	return c
}

type orderItemDoc struct {
	ProductID string               `bson:"product_id"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	CustomerID      string               `bson:"customer_id"`
	Items           []orderItemDoc       `bson:"items"`
	TotalAmount     primitive.Decimal128 `bson:"total_amount"`
	ShippingAddress addressDoc           `bson:"shipping_address"`
	Status          string               `bson:"status"`
	TransactionID   string               `bson:"transaction_id,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

func newOrderDoc(o *domorder.Order) (*orderDoc, error) {
	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return nil, err
	}
	d := &orderDoc{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		Items:           make([]orderItemDoc, 0, len(o.Items)),
		TotalAmount:     total,
		ShippingAddress: addressDoc(o.ShippingAddress),
		Status:          string(o.Status),
		TransactionID:   o.TransactionID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		price, err := toDecimal128(it.Price)
		if err != nil {
			return nil, err
		}
		d.Items = append(d.Items, orderItemDoc{ProductID: it.ProductID, Quantity: it.Quantity, Price: price})
	}
	return d, nil
}

func (d *orderDoc) toDomain() (*domorder.Order, error) {
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	o := &domorder.Order{
		ID:              d.ID,
		CustomerID:      d.CustomerID,
		Items:           make([]domorder.Item, 0, len(d.Items)),
		TotalAmount:     total,
		ShippingAddress: domorder.ShippingAddress(d.ShippingAddress),
		Status:          domorder.Status(d.Status),
		TransactionID:   d.TransactionID,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
	for _, it := range d.Items {
		price, err := fromDecimal128(it.Price)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, domorder.Item{ProductID: it.ProductID, Quantity: it.Quantity, Price: price})
	}
	return o, nil
}

type transactionDoc struct {
	ID                   string               `bson:"_id"`
	OrderID              string               `bson:"order_id"`
	GatewayTransactionID string               `bson:"gateway_transaction_id"`
	Gateway              string               `bson:"gateway"`
	Amount               primitive.Decimal128 `bson:"amount"`
	Currency             string               `bson:"currency"`
	Status               string               `bson:"status"`
	RawResponse          string               `bson:"raw_response,omitempty"`
	CreatedAt            time.Time            `bson:"created_at"`
	UpdatedAt            time.Time            `bson:"updated_at"`
}

func newTransactionDoc(t *dompayment.Transaction) (*transactionDoc, error) {
	amount, err := toDecimal128(t.Amount)
	if err != nil {
		return nil, err
	}
	return &transactionDoc{
		ID:                   t.ID,
		OrderID:              t.OrderID,
		GatewayTransactionID: t.GatewayTransactionID,
		Gateway:              t.Gateway,
		Amount:               amount,
		Currency:             t.Currency,
		Status:               string(t.Status),
		RawResponse:          string(t.RawResponse),
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}, nil
}

func (d *transactionDoc) toDomain() (*dompayment.Transaction, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	t := &dompayment.Transaction{
		ID:                   d.ID,
		OrderID:              d.OrderID,
		GatewayTransactionID: d.GatewayTransactionID,
		Gateway:              d.Gateway,
		Amount:               amount,
		Currency:             d.Currency,
		Status:               dompayment.Status(d.Status),
		CreatedAt:            d.CreatedAt.UTC(),
		UpdatedAt:            d.UpdatedAt.UTC(),
	}
	if d.RawResponse != "" {
		t.RawResponse = json.RawMessage(d.RawResponse)
	}
	return t, nil
}
