package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"barterly/internal/roles"

	"github.com/stretchr/testify/assert"
)

func TestAuthTokenMiddleware(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/offers", nil)
		rr := httptest.NewRecorder()
		env.mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/offers", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := httptest.NewRecorder()
		env.mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/offers", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rr := httptest.NewRecorder()
		env.mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/offers", nil, 1)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRequireCapability(t *testing.T) {
	env := newTestEnv(t)

	t.Run("regular user cannot reach admin routes", func(t *testing.T) {
		rr := env.doAs(t, http.MethodGet, "/v1/admin/users", nil, 1, roles.User)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("sub-admin cannot manage sub-admins", func(t *testing.T) {
		rr := env.doAs(t, http.MethodGet, "/v1/admin/sub-admins", nil, 1, roles.SubAdmin)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
