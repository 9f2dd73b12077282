package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/middleware"
	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/service"
)

// CatalogHandler serves the public property and FAQ listings.
type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/properties", h.ListProperties)
	r.Get("/properties/{slug}", h.GetProperty)
	r.Get("/faq", h.ListFAQ)

	return r
}

func (h *CatalogHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	listing := h.catalog.Properties(r.Context())
	if !listingReady(w, listing) {
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Items: listing.Items,
		Stale: listing.Status == service.CacheStale,
	})
}

func (h *CatalogHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	property, listing := h.catalog.Property(r.Context(), chi.URLParam(r, "slug"))
	if !listingReady(w, listing) {
		return
	}
	if property == nil {
		writeError(w, apperrors.NotFound("Property"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"property": property,
		"stale":    listing.Status == service.CacheStale,
	})
}

type faqItem struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *CatalogHandler) ListFAQ(w http.ResponseWriter, r *http.Request) {
	listing := h.catalog.FAQ(r.Context(), r.URL.Query().Get("category"))
	if !listingReady(w, listing) {
		return
	}

	lang := middleware.RequestLanguage(r)
	items := make([]faqItem, 0, len(listing.Items))
	for i := range listing.Items {
		items = append(items, localizeFAQ(&listing.Items[i], lang))
	}

	writeJSON(w, http.StatusOK, listResponse{
		Items: items,
		Stale: listing.Status == service.CacheStale,
	})
}

func localizeFAQ(entry *model.FAQEntry, lang model.Language) faqItem {
	q, a := entry.Localized(lang)
	return faqItem{ID: entry.ID, Category: entry.Category, Question: q, Answer: a}
}
