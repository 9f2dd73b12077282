package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/colivhub/portal-server-go/internal/audit"
	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/middleware"
	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/service"
)

type Authenticator interface {
	RequestMagicLink(ctx context.Context, email string, lang model.Language) error
	VerifyMagicLink(ctx context.Context, token string) (*service.SignInResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*service.SignInResult, error)
	RequestRecovery(ctx context.Context, email string, lang model.Language) error
	CompleteRecovery(ctx context.Context, token, newPassword string) (*service.SignInResult, error)
	UpdatePassword(ctx context.Context, identity *model.Identity, newPassword string) error
	SignOut(ctx context.Context, token string) error
}

// AuthHandler exposes sign-in, recovery and sign-out. Successful sign-ins set
// the portal session cookie; the portal then decides about tenant access.
type AuthHandler struct {
	auth         Authenticator
	loginLimit   func(http.Handler) http.Handler
	sessionTTL   time.Duration
	isProduction bool
}

func NewAuthHandler(
	auth Authenticator,
	loginLimit func(http.Handler) http.Handler,
	sessionTTL time.Duration,
	isProduction bool,
) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		loginLimit:   loginLimit,
		sessionTTL:   sessionTTL,
		isProduction: isProduction,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/callback", h.Callback)
	r.Get("/reset-password", h.RecoveryLanding)
	r.Post("/api/magic-link", h.RequestMagicLink)
	r.With(h.loginLimit).Post("/api/sign-in", h.SignIn)
	r.Post("/api/recovery", h.RequestRecovery)
	r.With(h.loginLimit).Post("/api/reset-password", h.ResetPassword)
	r.With(middleware.RequireIdentity).Post("/api/password", h.UpdatePassword)
	r.Post("/api/sign-out", h.SignOut)

	return r
}

type emailRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Language string `json:"lang"`
}

func (req emailRequest) lang(r *http.Request) model.Language {
	if req.Language != "" {
		return model.ParseLanguage(req.Language)
	}
	return middleware.RequestLanguage(r)
}

func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.RequestMagicLink(r.Context(), req.Email, req.lang(r)); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventMagicLinkSent,
		Details: map[string]interface{}{"email": req.Email},
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Callback is the landing URL of emailed sign-in links. It always redirects
// to the portal, with an error marker when the link was refused.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	lang := middleware.RequestLanguage(r)
	target := url.Values{"lang": {string(lang)}}

	result, err := h.auth.VerifyMagicLink(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		code := "invalid_link"
		if apperrors.GetCode(err) == apperrors.ErrCodeTokenExpired {
			code = "expired_link"
		}
		log.Info().Err(err).Msg("sign-in link refused")
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]interface{}{"method": "magic_link", "reason": code},
		})
		target.Set("error", code)
		http.Redirect(w, r, "/portal/?"+target.Encode(), http.StatusFound)
		return
	}

	h.startSession(w, r, result, "magic_link")
	http.Redirect(w, r, "/portal/?"+target.Encode(), http.StatusFound)
}

// RecoveryLanding hands an emailed recovery link over to the portal's
// new-password page. The token is only consumed when that page submits.
func (h *AuthHandler) RecoveryLanding(w http.ResponseWriter, r *http.Request) {
	target := url.Values{
		"token": {r.URL.Query().Get("token")},
		"lang":  {string(middleware.RequestLanguage(r))},
	}
	http.Redirect(w, r, "/portal/reset-password?"+target.Encode(), http.StatusFound)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=128"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]interface{}{"method": "password", "email": req.Email},
		})
		writeError(w, err)
		return
	}

	h.startSession(w, r, result, "password")
	writeJSON(w, http.StatusOK, map[string]any{"user": result.Identity})
}

func (h *AuthHandler) RequestRecovery(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.RequestRecovery(r.Context(), req.Email, req.lang(r)); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventRecoveryLinkSent,
		Details: map[string]interface{}{"email": req.Email},
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,max=72"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.CompleteRecovery(r.Context(), req.Token, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventPasswordUpdate, UserID: result.Identity.UserID})
	h.startSession(w, r, result, "recovery")
	writeJSON(w, http.StatusOK, map[string]any{"user": result.Identity})
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password" validate:"required,max=72"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity := middleware.GetIdentity(r.Context())
	if err := h.auth.UpdatePassword(r.Context(), identity, req.Password); err != nil {
		writeError(w, err)
		return
	}

	// every session, this one included, was revoked
	middleware.ClearSessionCookie(w, middleware.PortalSessionCookie, "/")
	audit.LogFromRequest(r, audit.Event{Type: audit.EventPasswordUpdate, UserID: identity.UserID})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.PortalSessionCookie)
	if err == nil && cookie.Value != "" {
		if err := h.auth.SignOut(r.Context(), cookie.Value); err != nil {
			log.Warn().Err(err).Msg("failed to delete portal session")
		}
	}

	userID := ""
	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		userID = identity.UserID
	}
	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout, UserID: userID})

	middleware.ClearSessionCookie(w, middleware.PortalSessionCookie, "/")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, result *service.SignInResult, method string) {
	middleware.SetSessionCookie(w, middleware.PortalSessionCookie, result.Token, "/", h.sessionTTL, h.isProduction)
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginSuccess,
		UserID:  result.Identity.UserID,
		Details: map[string]interface{}{"method": method},
	})
}
