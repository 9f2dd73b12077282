package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colivhub/portal-server-go/internal/audit"
	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/portal"
)

const (
	AdminSessionCookie  = "admin_session"
	PortalSessionCookie = "portal_session"
	AdminSessionMaxAge  = 24 * time.Hour
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"
	SnapshotContextKey contextKey = "portalSnapshot"
)

func GetIdentity(ctx context.Context) *model.Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(*model.Identity); ok {
		return identity
	}
	return nil
}

// GetSnapshot returns the access state computed by TenantGateMiddleware.
func GetSnapshot(ctx context.Context) (portal.Snapshot, bool) {
	snap, ok := ctx.Value(SnapshotContextKey).(portal.Snapshot)
	return snap, ok
}

// GetTenant returns the linked tenant, only when access is tenant_ready.
func GetTenant(ctx context.Context) *model.Tenant {
	snap, ok := GetSnapshot(ctx)
	if !ok || snap.State != portal.StateTenantReady {
		return nil
	}
	return snap.Tenant
}

// RequestLanguage reads ?lang= first, then Accept-Language.
func RequestLanguage(r *http.Request) model.Language {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return model.ParseLanguage(lang)
	}
	return model.ParseLanguage(r.Header.Get("Accept-Language"))
}

// Portal Session Middleware

type IdentityResolver interface {
	CurrentIdentity(ctx context.Context, token string) (*model.Identity, error)
}

// PortalSessionMiddleware attaches the signed-in identity, if any. It never
// rejects a request.
type PortalSessionMiddleware struct {
	resolver IdentityResolver
}

func NewPortalSessionMiddleware(resolver IdentityResolver) *PortalSessionMiddleware {
	return &PortalSessionMiddleware{resolver: resolver}
}

func (m *PortalSessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(PortalSessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.resolver.CurrentIdentity(r.Context(), cookie.Value)
		if err != nil {
			log.Error().Err(err).Msg("portal session middleware: session lookup failed")
			next.ServeHTTP(w, r)
			return
		}
		if identity == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()) == nil {
			writeError(w, apperrors.Unauthorized("Sign in required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Tenant Gate Middleware

// TenantGateMiddleware runs the access state machine for the request's
// identity and stores the resulting snapshot in the context.
type TenantGateMiddleware struct {
	lookup portal.TenantLookup
	seq    *portal.Sequencer
}

func NewTenantGateMiddleware(lookup portal.TenantLookup, seq *portal.Sequencer) *TenantGateMiddleware {
	return &TenantGateMiddleware{lookup: lookup, seq: seq}
}

func (m *TenantGateMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gate := portal.NewGate(m.lookup, m.seq, RequestLanguage(r))
		defer gate.Close()

		snap := gate.SetIdentity(r.Context(), GetIdentity(r.Context()))
		ctx := context.WithValue(r.Context(), SnapshotContextKey, snap)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTenant only lets tenant_ready requests through.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := GetSnapshot(r.Context())
		if !ok {
			writeError(w, apperrors.Internal("access state unavailable"))
			return
		}

		switch snap.State {
		case portal.StateTenantReady:
			next.ServeHTTP(w, r)
		case portal.StateNoTenantLinked:
			if snap.Err != nil {
				writeError(w, apperrors.Database(snap.Err))
				return
			}
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthFailure,
				UserID:  GetIdentity(r.Context()).UserID,
				Details: map[string]interface{}{"reason": "no_tenant_linked"},
			})
			writeError(w, apperrors.NoTenantLinked(snap.Email))
		default:
			writeError(w, apperrors.Unauthorized("Sign in required"))
		}
	})
}

// Admin Session Middleware

type AdminAuthenticator interface {
	Enabled() bool
	ValidateSession(ctx context.Context, token string) bool
}

type AdminSessionMiddleware struct {
	admin AdminAuthenticator
}

func NewAdminSessionMiddleware(admin AdminAuthenticator) *AdminSessionMiddleware {
	return &AdminSessionMiddleware{admin: admin}
}

func (m *AdminSessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.admin.Enabled() {
			writeError(w, apperrors.Unavailable("Admin"))
			return
		}

		cookie, err := r.Cookie(AdminSessionCookie)
		if err != nil || cookie.Value == "" || !m.admin.ValidateSession(r.Context(), cookie.Value) {
			writeError(w, apperrors.Unauthorized("Unauthorized"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func SetSessionCookie(w http.ResponseWriter, name, token, path string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   path,
		MaxAge: -1,
	})
}
