package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/binge/internal/unlock"
)

// Routes exercised here answer before touching the database
func newTestServer() *Server {
	return newServer(nil, DefaultCatalog)
}

func serve(s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(newTestServer(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestProducts(t *testing.T) {
	s := newTestServer()
	id := DefaultCatalog[0].ID

	rec := serve(s, http.MethodGet, "/api/v1/store/products?ids="+id+",bogus", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp unlock.ProductsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, id, resp.Products[0].ID)
	assert.Equal(t, int64(499), resp.Products[0].PriceMinor)
	assert.Equal(t, []string{"bogus"}, resp.InvalidIDs)
}

func TestProductsWithoutIDsListsCatalog(t *testing.T) {
	rec := serve(newTestServer(), http.MethodGet, "/api/v1/store/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp unlock.ProductsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Products, len(DefaultCatalog))
	assert.Empty(t, resp.InvalidIDs)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer()

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/sync"},
		{http.MethodPost, "/api/v1/sync"},
		{http.MethodPost, "/api/v1/clear"},
		{http.MethodGet, "/api/v1/me"},
		{http.MethodPost, "/api/v1/store/purchases"},
		{http.MethodPost, "/api/v1/store/restore"},
	} {
		rec := serve(s, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)

		rec = serve(s, tc.method, tc.path, "", map[string]string{"Authorization": "Basic abc"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer()

	for name, body := range map[string]string{
		"missing fields": `{"username":"ann"}`,
		"bad email":      `{"username":"ann","email":"nope","password":"longenough"}`,
		"short password": `{"username":"ann","email":"a@b.c","password":"short"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(s, http.MethodPost, "/api/v1/register", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	s := newTestServer()
	e := s.echo

	for header, want := range map[string]bool{
		"":             false,
		"Bearer ":      false,
		"Token abc":    false,
		"Bearer abc12": true,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		c := e.NewContext(req, httptest.NewRecorder())
		_, ok := bearerToken(c)
		assert.Equal(t, want, ok, header)
	}
}
