package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pathRegistrar struct {
	path string
}

func (p pathRegistrar) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if authMiddleware != nil {
		handler = authMiddleware(handler)
	}
	mux.Handle(p.path, handler)
}

func tagging(tag string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", tag)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNew_MiddlewareOrdering(t *testing.T) {
	mux := New(
		pathRegistrar{path: "/transfer"},
		pathRegistrar{path: "/accounts/"},
		pathRegistrar{path: "/health"},
		tagging("auth"),
		tagging("limit"),
	)

	serve := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	assert.Equal(t, []string{"limit", "auth"}, serve("/transfer").Header().Values("X-Chain"))
	assert.Equal(t, []string{"auth"}, serve("/accounts/x").Header().Values("X-Chain"))
	assert.Empty(t, serve("/health").Header().Values("X-Chain"))
}

func TestSwaggerDocument(t *testing.T) {
	mux := New(nil, nil, nil, nil, nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Contains(t, doc.Paths, "/transfer")
	assert.Contains(t, doc.Paths, "/accounts/{id}")
	assert.Contains(t, doc.Paths, "/health")
}
