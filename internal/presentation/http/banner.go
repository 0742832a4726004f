package httppresentation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	appbanner "github.com/Zhima-Mochi/storefront/internal/application/banner"
	dombanner "github.com/Zhima-Mochi/storefront/internal/domain/banner"
)

// bannerRequest takes the image as a URL; uploads happen outside this service.
type bannerRequest struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	CTAText  string `json:"cta_text"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url"`
	IsActive *bool  `json:"is_active"`
	Order    *int   `json:"order"`
}

func (req bannerRequest) input() appbanner.Input {
	return appbanner.Input(req)
}

type bannerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	CTAText   string    `json:"cta_text"`
	ImageURL  string    `json:"image_url"`
	LinkURL   string    `json:"link_url"`
	IsActive  bool      `json:"is_active"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newBannerResponse(b *dombanner.Banner) bannerResponse {
	return bannerResponse{
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

func newBannerList(bs []*dombanner.Banner) []bannerResponse {
	out := make([]bannerResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, newBannerResponse(b))
	}
	return out
}

func (h *Handler) handleListBanners(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Banners.List(r.Context(), true)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBannerList(list))
}

func (h *Handler) handleGetBanner(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Banners.GetActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBannerResponse(b))
}

// handleAdminListBanners includes inactive banners.
func (h *Handler) handleAdminListBanners(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Banners.List(r.Context(), false)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBannerList(list))
}

func (h *Handler) handleAdminGetBanner(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Banners.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBannerResponse(b))
}

func (h *Handler) handleCreateBanner(w http.ResponseWriter, r *http.Request) {
	var req bannerRequest
	if _, err := decodeBody(w, r, bannerLoader, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	b, err := h.svc.Banners.Create(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBannerResponse(b))
}

func (h *Handler) handleUpdateBanner(w http.ResponseWriter, r *http.Request) {
	var req bannerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	b, err := h.svc.Banners.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBannerResponse(b))
}

func (h *Handler) handleDeleteBanner(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Banners.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
