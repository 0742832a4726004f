package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
)

const (
	DefaultAPIURL  = "https://api.razorpay.com/v1"
	defaultTimeout = 10 * time.Second
)

var ErrNotConfigured = errors.New("razorpay: key id and secret are required")

// Verifier checks checkout signatures: hex(HMAC-SHA256(orderID + "|" + paymentID, secret)).
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(gatewayOrderID, paymentID, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	expected := Sign(v.secret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Sign returns the signature the gateway produces for the pair.
func Sign(secret []byte, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Client calls the gateway's REST order API.
type Client struct {
	baseURL string
	keyID   string
	secret  string
	http    *http.Client
}

func NewClient(baseURL, keyID, secret string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		keyID:   keyID,
		secret:  secret,
		http:    hc,
	}
}

type createOrderBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder converts the amount to the smallest currency unit (paise for INR).
func (c *Client) CreateOrder(ctx context.Context, req apppayment.GatewayOrderRequest) (*apppayment.GatewayOrder, error) {
	if c.keyID == "" || c.secret == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(createOrderBody{
		Amount:   req.Amount.Shift(2).Round(0).IntPart(),
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: encode order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("razorpay: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.secret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("razorpay: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay: create order: status %d: %s", resp.StatusCode, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay: create order: status %d", resp.StatusCode)
	}

	var out apppayment.GatewayOrder
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("razorpay: decode order: %w", err)
	}
	return &out, nil
}
