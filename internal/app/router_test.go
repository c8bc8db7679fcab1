package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-b2b/internal/observability"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

func testRouter(t *testing.T, params RouterParams) http.Handler {
	t.Helper()
	params.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if params.Config == nil {
		params.Config = &Config{AppEnv: "test", RateLimitPerMinute: 1000}
	}
	return NewRouter(params)
}

func TestHealthzAndSecureHeaders(t *testing.T) {
	router := testRouter(t, RouterParams{Metrics: observability.NewMetrics()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "odyssey_http_requests_total")
}

func TestActorMiddleware(t *testing.T) {
	var seen int64
	handler := actorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(ActorHeader, "42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), seen)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(ActorHeader, "admin")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilesAreServedFromLocalStorage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "delivery-notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "delivery-notes", "do.pdf"), []byte("%PDF-1.7"), 0o644))
	router := testRouter(t, RouterParams{FilesDir: dir, FilesPrefix: "/files"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/delivery-notes/do.pdf", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.7", rec.Body.String())
	assert.Equal(t, "private, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestUnmountedRoutesReturnNotFound(t *testing.T) {
	router := testRouter(t, RouterParams{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invoices", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
