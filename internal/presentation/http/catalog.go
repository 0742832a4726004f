package httppresentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
)

type productRequest struct {
	SKU          string            `json:"sku"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Tags         []string          `json:"tags"`
	Price        decimal.Decimal   `json:"price"`
	Stock        int               `json:"stock"`
	Weight       float64           `json:"weight"`
	Images       []string          `json:"images"`
	CategorySlug string            `json:"category"`
	Attributes   map[string]string `json:"attributes"`
	Dietary      string            `json:"dietary"`
}

func (req productRequest) input() appcatalog.ProductInput {
	return appcatalog.ProductInput{
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		Tags:         req.Tags,
		Price:        req.Price,
		Stock:        req.Stock,
		Weight:       req.Weight,
		Images:       req.Images,
		CategorySlug: req.CategorySlug,
		Attributes:   req.Attributes,
		Dietary:      req.Dietary,
	}
}

type categoryRequest struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
}

func (req categoryRequest) input() appcatalog.CategoryInput {
	return appcatalog.CategoryInput(req)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.Catalog.ListProducts(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductList(list))
}

func (h *Handler) handleGetProductBySKU(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.GetProductBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(p))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(p))
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if _, err := decodeBody(w, r, productLoader, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.svc.Catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProductResponse(p))
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.svc.Catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(p))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Catalog.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, newCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Catalog.GetCategory(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryResponse(c))
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Catalog.CreateCategory(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryResponse(c))
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Catalog.UpdateCategory(r.Context(), chi.URLParam(r, "slug"), req.input())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryResponse(c))
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteCategory(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
