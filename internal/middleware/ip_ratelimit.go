package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/colivhub/portal-server-go/internal/audit"
	apperrors "github.com/colivhub/portal-server-go/internal/errors"
)

// Limiter is the sliding-window limiter backing IPRateLimitMiddleware.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) error
}

// IPRateLimitMiddleware limits requests per client IP under a named bucket,
// e.g. "login" or "admin-login".
type IPRateLimitMiddleware struct {
	limiter Limiter
	limit   int
	window  time.Duration
	prefix  string
}

func NewIPRateLimitMiddleware(limiter Limiter, limit int, window time.Duration, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		prefix:  prefix,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := audit.ClientIP(r)

		key := fmt.Sprintf("ip:%s:%s", m.prefix, ip)
		if err := m.limiter.Allow(r.Context(), key, m.limit, m.window); err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeRateLimitExceeded {
				if details, ok := appErr.Details.(map[string]any); ok {
					if retryAfter, ok := details["retryAfter"].(int); ok {
						w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
					}
				}
				audit.LogFromRequest(r, audit.Event{
					Type:    audit.EventRateLimitExceed,
					Details: map[string]interface{}{"bucket": m.prefix},
				})
			}
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
