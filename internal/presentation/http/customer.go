package httppresentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	appcustomer "github.com/Zhima-Mochi/storefront/internal/application/customer"
	domcustomer "github.com/Zhima-Mochi/storefront/internal/domain/customer"
)

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string           `json:"token"`
	Customer customerResponse `json:"customer"`
}

type updateProfileRequest struct {
	FirstName         *string       `json:"first_name"`
	LastName          *string       `json:"last_name"`
	Phone             *string       `json:"phone"`
	Password          *string       `json:"password"`
	ShippingAddresses []addressBody `json:"shipping_addresses"`
}

type cartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type wishlistRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if _, err := decodeBody(w, r, signupLoader, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := h.svc.Customers.Signup(r.Context(), appcustomer.SignupInput(req))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: res.Token, Customer: newCustomerResponse(res.Customer)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := h.svc.Customers.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, Customer: newCustomerResponse(res.Customer)})
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customers.Get(r.Context(), customerIDFrom(r.Context()))
	h.writeCustomer(w, r, c, err)
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	in := appcustomer.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Password:  req.Password,
	}
	if req.ShippingAddresses != nil {
		in.ShippingAddresses = make([]domcustomer.Address, 0, len(req.ShippingAddresses))
		for _, a := range req.ShippingAddresses {
			in.ShippingAddresses = append(in.ShippingAddresses, domcustomer.Address(a))
		}
	}
	c, err := h.svc.Customers.UpdateProfile(r.Context(), customerIDFrom(r.Context()), in)
	h.writeCustomer(w, r, c, err)
}

func (h *Handler) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Customers.Delete(r.Context(), customerIDFrom(r.Context())); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customers.Get(r.Context(), customerIDFrom(r.Context()))
	h.writeCart(w, r, c, err)
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Customers.AddToCart(r.Context(), customerIDFrom(r.Context()), req.ProductID, req.Quantity)
	h.writeCart(w, r, c, err)
}

func (h *Handler) handleSetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Customers.SetCartQuantity(r.Context(), customerIDFrom(r.Context()), chi.URLParam(r, "productID"), req.Quantity)
	h.writeCart(w, r, c, err)
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customers.RemoveFromCart(r.Context(), customerIDFrom(r.Context()), chi.URLParam(r, "productID"))
	h.writeCart(w, r, c, err)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customers.ClearCart(r.Context(), customerIDFrom(r.Context()))
	h.writeCart(w, r, c, err)
}

func (h *Handler) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customers.Get(r.Context(), customerIDFrom(r.Context()))
	h.writeWishlist(w, r, c, err)
}

func (h *Handler) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Customers.AddToWishlist(r.Context(), customerIDFrom(r.Context()), req.ProductID)
	h.writeWishlist(w, r, c, err)
}

func (h *Handler) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customers.RemoveFromWishlist(r.Context(), customerIDFrom(r.Context()), chi.URLParam(r, "productID"))
	h.writeWishlist(w, r, c, err)
}

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Customers.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]customerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, newCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeCustomer(w http.ResponseWriter, r *http.Request, c *domcustomer.Customer, err error) {
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCustomerResponse(c))
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, c *domcustomer.Customer, err error) {
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart": newCart(c.Cart)})
}

func (h *Handler) writeWishlist(w http.ResponseWriter, r *http.Request, c *domcustomer.Customer, err error) {
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wishlist": append([]string{}, c.Wishlist...)})
}
