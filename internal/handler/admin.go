package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/colivhub/portal-server-go/internal/audit"
	"github.com/colivhub/portal-server-go/internal/config"
	"github.com/colivhub/portal-server-go/internal/content"
	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/middleware"
	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/service"
	"github.com/colivhub/portal-server-go/internal/storage"
	"github.com/colivhub/portal-server-go/internal/util"
)

type AdminAuth interface {
	Login(ctx context.Context, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

type ContentEditor interface {
	Rows(ctx context.Context, propertyID string) ([]model.PropertyContent, error)
	Upsert(ctx context.Context, params model.UpsertPropertyContentParams) (*model.PropertyContent, error)
	Seed(ctx context.Context, propertyID, propertyKey string) (int, error)
}

type AdminHandler struct {
	admin             AdminAuth
	content           ContentEditor
	catalog           *service.CatalogService
	store             storage.Store
	sessionMiddleware func(http.Handler) http.Handler
	loginLimit        func(http.Handler) http.Handler
	isProduction      bool
}

func NewAdminHandler(
	admin AdminAuth,
	editor ContentEditor,
	catalog *service.CatalogService,
	store storage.Store,
	sessionMiddleware func(http.Handler) http.Handler,
	loginLimit func(http.Handler) http.Handler,
	isProduction bool,
) *AdminHandler {
	return &AdminHandler{
		admin:             admin,
		content:           editor,
		catalog:           catalog,
		store:             store,
		sessionMiddleware: sessionMiddleware,
		loginLimit:        loginLimit,
		isProduction:      isProduction,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginLimit).Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Get("/api/me", h.Me)

		// Content
		r.Get("/api/properties/{id}/content", h.ListContent)
		r.Put("/api/content", h.UpsertContent)
		r.Post("/api/properties/{id}/seed", h.SeedContent)

		// Media
		r.Post("/api/uploads", h.Upload)

		// Catalog
		r.Post("/api/catalog/refresh", h.RefreshCatalog)
	})

	return r
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password" validate:"required,max=128"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.admin.Login(r.Context(), req.Password)
	if err != nil {
		log.Error().Err(err).Msg("admin login error")
		writeError(w, apperrors.Internal("Login failed").WithCause(err))
		return
	}

	if token == "" {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]interface{}{"area": "admin"},
		})
		writeError(w, apperrors.Unauthorized("Invalid password"))
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventAdminLogin})
	middleware.SetSessionCookie(w, middleware.AdminSessionCookie, token, "/admin", middleware.AdminSessionMaxAge, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.AdminSessionCookie)
	if err == nil && cookie.Value != "" {
		if err := h.admin.Logout(r.Context(), cookie.Value); err != nil {
			log.Warn().Err(err).Msg("failed to delete admin session")
		}
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventAdminLogout})
	middleware.ClearSessionCookie(w, middleware.AdminSessionCookie, "/admin")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (h *AdminHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	rows, err := h.content.Rows(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": rows,
		"total": len(rows),
	})
}

func (h *AdminHandler) UpsertContent(w http.ResponseWriter, r *http.Request) {
	var params model.UpsertPropertyContentParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	row, err := h.content.Upsert(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventContentUpsert,
		Details: map[string]interface{}{"propertyId": row.PropertyID, "sectionKey": row.SectionKey, "id": row.ID},
	})
	writeJSON(w, http.StatusOK, row)
}

// SeedContent copies the fallback tables of the property, matched by name,
// into stored rows.
func (h *AdminHandler) SeedContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	property, listing := h.catalog.PropertyByID(r.Context(), id)
	if property == nil {
		if listing.Err != nil {
			writeError(w, apperrors.Wrap(apperrors.ErrCodeUnavailable, "Catalog temporarily unavailable", listing.Err))
			return
		}
		writeError(w, apperrors.NotFound("Property"))
		return
	}

	key := content.PropertyKey(property.Name)
	inserted, err := h.content.Seed(r.Context(), property.ID, key)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventContentSeed,
		Details: map[string]interface{}{"propertyId": property.ID, "propertyKey": key, "rows": inserted},
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"propertyId":  property.ID,
		"propertyKey": key,
		"inserted":    inserted,
	})
}

func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	result, err := receiveUpload(w, r, h.store, config.MaxUploadSize, "properties", imageTypes)
	if err != nil {
		writeError(w, err)
		return
	}
	result.URL = h.store.PublicURL(result.Path)

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventFileUpload,
		Details: map[string]interface{}{"path": result.Path, "size": result.Size, "area": "admin"},
	})
	writeJSON(w, http.StatusCreated, result)
}

func (h *AdminHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	h.catalog.InvalidateProperties()
	listing := h.catalog.Properties(r.Context())
	if !listingReady(w, listing) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total": len(listing.Items),
		"stale": listing.Status == service.CacheStale,
	})
}
