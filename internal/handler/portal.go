package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/colivhub/portal-server-go/internal/audit"
	"github.com/colivhub/portal-server-go/internal/config"
	"github.com/colivhub/portal-server-go/internal/content"
	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/middleware"
	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/service"
	"github.com/colivhub/portal-server-go/internal/storage"
)

type ContentResolver interface {
	Resolve(ctx context.Context, propertyID *string, propertyKey string, lang model.Language) service.Resolution
}

// PortalHandler serves the tenant portal API. Every route runs behind the
// tenant gate; all but /api/state also require tenant_ready.
type PortalHandler struct {
	catalog *service.CatalogService
	content ContentResolver
	store   storage.Store
	events  http.Handler
	gate    func(http.Handler) http.Handler
}

func NewPortalHandler(
	catalog *service.CatalogService,
	resolver ContentResolver,
	store storage.Store,
	events http.Handler,
	gate func(http.Handler) http.Handler,
) *PortalHandler {
	return &PortalHandler{
		catalog: catalog,
		content: resolver,
		store:   store,
		events:  events,
		gate:    gate,
	}
}

func (h *PortalHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.gate)

	r.Get("/api/state", h.State)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant)
		r.Get("/api/tenant", h.Tenant)
		r.Get("/api/content", h.Content)
		r.Post("/api/documents", h.UploadDocument)
		r.Get("/api/events", h.events.ServeHTTP)
	})

	return r
}

// State always answers 200; the client renders sign-in, the no-tenant page
// or the portal from it.
func (h *PortalHandler) State(w http.ResponseWriter, r *http.Request) {
	snap, _ := middleware.GetSnapshot(r.Context())
	writeJSON(w, http.StatusOK, snap)
}

func (h *PortalHandler) Tenant(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.GetTenant(r.Context())
	property := h.tenantProperty(r.Context(), tenant)

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant":   tenant,
		"property": property,
	})
}

func (h *PortalHandler) Content(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.GetTenant(r.Context())
	lang := middleware.RequestLanguage(r)

	resolution := h.content.Resolve(r.Context(), tenant.PropertyID, h.fallbackKey(r.Context(), tenant), lang)
	writeJSON(w, http.StatusOK, map[string]any{
		"language": lang,
		"sections": resolution.Sections,
		"fromDb":   resolution.FromDB,
	})
}

func (h *PortalHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.GetTenant(r.Context())

	result, err := receiveUpload(w, r, h.store, config.MaxUploadSize, "tenants/"+tenant.ID, documentTypes)
	if err != nil {
		writeError(w, err)
		return
	}
	// tenant documents are private; the link expires
	result.URL, err = h.store.SignedURL(r.Context(), result.Path, config.DocumentURLTTL)
	if err != nil {
		writeError(w, apperrors.External("storage", err))
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventFileUpload,
		UserID:   middleware.GetIdentity(r.Context()).UserID,
		TenantID: tenant.ID,
		Details:  map[string]interface{}{"path": result.Path, "size": result.Size},
	})
	writeJSON(w, http.StatusCreated, result)
}

// fallbackKey prefers the property joined onto the tenant record, so the
// static content stays reachable when the property listing is unavailable or
// the property is no longer listed.
func (h *PortalHandler) fallbackKey(ctx context.Context, tenant *model.Tenant) string {
	switch {
	case tenant.PropertyName != nil && *tenant.PropertyName != "":
		return content.PropertyKey(*tenant.PropertyName)
	case tenant.PropertySlug != nil && *tenant.PropertySlug != "":
		return content.PropertyKey(*tenant.PropertySlug)
	}
	if property := h.tenantProperty(ctx, tenant); property != nil {
		return content.PropertyKey(property.Name)
	}
	return ""
}

func (h *PortalHandler) tenantProperty(ctx context.Context, tenant *model.Tenant) *model.Property {
	if tenant.PropertyID == nil {
		return nil
	}
	property, _ := h.catalog.PropertyByID(ctx, *tenant.PropertyID)
	return property
}
