package httppresentation

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
)

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	ShippingAddress addressBody        `json:"shipping_address"`
}

func (req placeOrderRequest) input(customerID string) apporder.PlaceOrderInput {
	items := make([]apporder.PlaceOrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, apporder.PlaceOrderItem(it))
	}
	return apporder.PlaceOrderInput{
		CustomerID:      customerID,
		Items:           items,
		ShippingAddress: req.ShippingAddress.shipping(),
	}
}

type checkoutRequest struct {
	ShippingAddress addressBody `json:"shipping_address"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type updateOrderRequest struct {
	ShippingAddress *addressBody `json:"shipping_address"`
	Status          *string      `json:"status"`
	TransactionID   *string      `json:"transaction_id"`
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if _, err := decodeBody(w, r, placeOrderLoader, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	o, err := h.svc.Orders.PlaceOrder(r.Context(), req.input(customerIDFrom(r.Context())))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResponse(o))
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	o, err := h.svc.Orders.Checkout(r.Context(), customerIDFrom(r.Context()), req.ShippingAddress.shipping())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResponse(o))
}

func (h *Handler) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Orders.ListByCustomer(r.Context(), customerIDFrom(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderList(list))
}

// handleListOrders accepts ?status=, ?customer=, ?since=RFC3339 and ?limit=.
func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	list, err := h.svc.Orders.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderList(list))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handler) handleOrdersByCustomer(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Orders.ListByCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderList(list))
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	o, err := h.svc.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	in := apporder.UpdateOrderInput{Status: req.Status, TransactionID: req.TransactionID}
	if req.ShippingAddress != nil {
		addr := req.ShippingAddress.shipping()
		in.ShippingAddress = &addr
	}
	o, err := h.svc.Orders.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

func parseOrderFilter(r *http.Request) (domorder.ListFilter, error) {
	q := r.URL.Query()
	filter := domorder.ListFilter{CustomerID: q.Get("customer")}
	if s := strings.TrimSpace(q.Get("status")); s != "" {
		st, err := domorder.ParseStatus(s)
		if err != nil {
			return filter, application.Invalid(err)
		}
		filter.Status = st
	}
	if s := q.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, application.Invalid(errors.New("since must be RFC3339"))
		}
		filter.Since = t
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return filter, application.Invalid(errors.New("limit must be a non-negative integer"))
		}
		filter.Limit = n
	}
	return filter, nil
}
