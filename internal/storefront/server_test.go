package storefront

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/beacon/internal/catalog"
	"github.com/fyrsmithlabs/beacon/internal/logging"
)

func newTestLogger() *logging.Logger {
	return logging.New(ServiceName, logging.WithConsoleWriter(io.Discard))
}

// startCatalog runs a real catalog server for the storefront to proxy.
func startCatalog(t *testing.T) *httptest.Server {
	t.Helper()
	backend, err := catalog.NewServer(catalog.NewStore(),
		logging.New(catalog.ServiceName, logging.WithConsoleWriter(io.Discard)))
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestNewServer(t *testing.T) {
	t.Run("requires a backend URL", func(t *testing.T) {
		_, err := NewServer("", newTestLogger())
		assert.Error(t, err)
	})

	t.Run("requires a logger", func(t *testing.T) {
		_, err := NewServer("http://localhost:3000", nil)
		assert.Error(t, err)
	})
}

func TestProxyRoundTrip(t *testing.T) {
	backend := startCatalog(t)
	srv, err := NewServer(backend.URL, newTestLogger())
	require.NoError(t, err)

	// Create through the storefront.
	req := httptest.NewRequest(http.MethodPost, "/products",
		bytes.NewBufferString(`{"name": "widget"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created catalog.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	// List through the storefront.
	listRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, listRec.Code)

	var items []catalog.Item
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
}

func TestBackendVerdictPassesThrough(t *testing.T) {
	backend := startCatalog(t)
	srv, err := NewServer(backend.URL, newTestLogger())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code,
		"backend's own 400 is relayed, not rewrapped")
}

func TestBackendFailureIs502(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := backend.URL
	backend.Close()

	srv, err := NewServer(url, newTestLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code,
		"dependency failure surfaces as 502 after a single attempt")
}
