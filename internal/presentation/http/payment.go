package httppresentation

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
	dompayment "github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

type gatewayOrderRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
}

type verifyPaymentRequest struct {
	GatewayOrderID string            `json:"razorpay_order_id"`
	PaymentID      string            `json:"razorpay_payment_id"`
	Signature      string            `json:"razorpay_signature"`
	Order          placeOrderRequest `json:"order"`
}

type recordTransactionRequest struct {
	OrderID              string          `json:"order_id"`
	GatewayTransactionID string          `json:"gateway_transaction_id"`
	Gateway              string          `json:"gateway"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Status               string          `json:"status"`
	RawResponse          json.RawMessage `json:"raw_response"`
}

type verifyPaymentResponse struct {
	Order       orderResponse        `json:"order"`
	Transaction *transactionResponse `json:"transaction,omitempty"`
	Warning     string               `json:"warning,omitempty"`
}

func (h *Handler) handleCreateGatewayOrder(w http.ResponseWriter, r *http.Request) {
	var req gatewayOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	o, err := h.svc.Payments.CreateGatewayOrder(r.Context(), apppayment.GatewayOrderRequest(req))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// handleVerifyPayment stores the request body verbatim as the transaction's raw response.
// When the order was placed but recording the payment failed, the order is still returned
// and the failure travels as a warning. A replayed payment id gets 409 and changes nothing.
func (h *Handler) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	raw, err := decodeBody(w, r, verifyPaymentLoader, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := h.svc.VerifyPayment.Execute(r.Context(), apppayment.VerifyPaymentInput{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
		Order:          req.Order.input(customerIDFrom(r.Context())),
		RawResponse:    json.RawMessage(raw),
	})
	if err != nil && (res == nil || res.Order == nil) {
		writeDomainError(w, r, err)
		return
	}

	out := verifyPaymentResponse{Order: newOrderResponse(res.Order)}
	if res.Transaction != nil {
		txn := newTransactionResponse(res.Transaction)
		out.Transaction = &txn
	}
	if err != nil {
		out.Warning = err.Error()
	}
	writeJSON(w, http.StatusCreated, out)
}

// handleRecordTransaction lets an admin enter a payment the verify flow failed to record.
func (h *Handler) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordTransactionRequest
	if _, err := decodeBody(w, r, recordTransactionLoader, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.Gateway == "" {
		req.Gateway = dompayment.GatewayRazorpay
	}
	txn, err := h.svc.RecordTransaction.Execute(r.Context(), apppayment.RecordTransactionInput{
		OrderID:              req.OrderID,
		GatewayTransactionID: req.GatewayTransactionID,
		Gateway:              req.Gateway,
		Amount:               req.Amount,
		Currency:             req.Currency,
		Status:               dompayment.Status(req.Status),
		RawResponse:          req.RawResponse,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponse(txn))
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.svc.Payments.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(txn))
}

func (h *Handler) handleUpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	txn, err := h.svc.Payments.UpdateTransactionStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(txn))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard.Stats(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardResponse(stats))
}
