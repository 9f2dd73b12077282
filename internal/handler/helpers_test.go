package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/colivhub/portal-server-go/internal/cache"
	"github.com/colivhub/portal-server-go/internal/middleware"
	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/portal"
	"github.com/colivhub/portal-server-go/internal/service"
	"github.com/colivhub/portal-server-go/internal/storage"
)

const (
	villaID = "6f1c2b1e-8a4d-4c39-9e0b-3d5a1f7e2c10"
	loftID  = "0b7d5e3a-2c19-4f84-a6de-91c3e5f0b842"
)

var testProperties = []model.Property{
	{ID: villaID, Slug: "la-villa", Name: "La Villa", City: "Lyon", IsActive: true},
	{ID: loftID, Slug: "le-loft", Name: "Le Loft", City: "Paris", IsActive: true},
}

var testFAQ = []model.FAQEntry{
	{ID: "f1", Category: "rent", QuestionFR: "Quand payer ?", QuestionEN: "When do I pay?", AnswerFR: "Le 5.", AnswerEN: "On the 5th."},
	{ID: "f2", Category: "house", QuestionFR: "Animaux ?", AnswerFR: "Non."},
}

// catalogBackend lets a test switch the catalog fetchers into failure.
type catalogBackend struct {
	mu   sync.Mutex
	fail bool
}

func (b *catalogBackend) setFail(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = fail
}

func (b *catalogBackend) err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("backend unavailable")
	}
	return nil
}

func newTestCatalog(backend *catalogBackend, ttl time.Duration) *service.CatalogService {
	properties := cache.New("handler_test_properties", ttl, func(ctx context.Context) ([]model.Property, error) {
		if err := backend.err(); err != nil {
			return nil, err
		}
		return testProperties, nil
	})
	faq := cache.New("handler_test_faq", ttl, func(ctx context.Context) ([]model.FAQEntry, error) {
		if err := backend.err(); err != nil {
			return nil, err
		}
		return testFAQ, nil
	})
	return service.NewCatalogService(properties, faq)
}

type fakeStore struct {
	mu       sync.Mutex
	uploads  map[string][]byte
	types    map[string]string
	disabled bool
}

func (s *fakeStore) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) error {
	if s.disabled {
		return storage.ErrDisabled
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploads == nil {
		s.uploads = make(map[string][]byte)
		s.types = make(map[string]string)
	}
	s.uploads[objectPath] = data
	s.types[objectPath] = contentType
	return nil
}

func (s *fakeStore) PublicURL(objectPath string) string {
	return "https://media.test/" + objectPath
}

func (s *fakeStore) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	if s.disabled {
		return "", storage.ErrDisabled
	}
	return "https://private.test/" + objectPath + "?expires=" + ttl.String(), nil
}

// withTenantState runs the tenant gate for identity in front of h.
func withTenantState(t *testing.T, lookup portal.TenantLookup, identity *model.Identity, h http.Handler) http.Handler {
	t.Helper()
	seq, err := portal.NewSequencer(16)
	require.NoError(t, err)
	gate := middleware.NewTenantGateMiddleware(lookup, seq)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity != nil {
			r = r.WithContext(context.WithValue(r.Context(), middleware.IdentityContextKey, identity))
		}
		gate.Handler(h).ServeHTTP(w, r)
	})
}

type tenantLookupFunc func(ctx context.Context, email string) (*model.Tenant, error)

func (f tenantLookupFunc) FindActiveByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	return f(ctx, email)
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// multipartFile builds a request body with a single "file" field.
func multipartFile(t *testing.T, name string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")
)
