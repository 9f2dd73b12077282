package middleware

import (
	"mime"
	"net/http"

	apperrors "github.com/colivhub/portal-server-go/internal/errors"
)

// DefaultMaxBodySize applies to JSON endpoints.
const DefaultMaxBodySize = 1 << 20

// BodyLimitMiddleware caps request bodies. Multipart uploads get their own,
// larger cap; the upload handlers check the file against the same value.
type BodyLimitMiddleware struct {
	maxSize       int64
	maxUploadSize int64
}

func NewBodyLimitMiddleware(maxSize, maxUploadSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	if maxUploadSize < maxSize {
		maxUploadSize = maxSize
	}
	return &BodyLimitMiddleware{maxSize: maxSize, maxUploadSize: maxUploadSize}
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := m.limitFor(r)
		if r.Body != nil && r.ContentLength > limit {
			writeError(w, apperrors.PayloadTooLarge(limit))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

func (m *BodyLimitMiddleware) limitFor(r *http.Request) int64 {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		return m.maxUploadSize
	}
	return m.maxSize
}
