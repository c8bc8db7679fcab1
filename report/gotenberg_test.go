package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLPostsMultipartForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		html, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Contains(t, string(html), "DO-2026-0001")
		assert.Equal(t, "8.5", r.FormValue("paperWidth"))

		_, _ = w.Write([]byte("%PDF-mock"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/").WithHTTPClient(srv.Client())
	pdf, err := client.RenderHTML(context.Background(), "<h1>DO-2026-0001</h1>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-mock", string(pdf))
}

func TestRenderHTMLSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<p/>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "chromium crashed")
}

func TestRenderHTMLRequiresEndpoint(t *testing.T) {
	_, err := NewClient("").RenderHTML(context.Background(), "<p/>")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(srv.URL).Ping(context.Background()))
}
