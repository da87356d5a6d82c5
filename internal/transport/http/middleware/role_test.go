package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func requestWithRoles(roles ...string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), ClaimsKey, validClaims("u1", roles...))
	return req.WithContext(ctx)
}

func TestRequireRole_Allowed(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireRole("editor")(http.HandlerFunc(okHandler)).ServeHTTP(rr, requestWithRoles("author", "editor"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireRole_Forbidden(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireRole("editor")(http.HandlerFunc(okHandler)).ServeHTTP(rr, requestWithRoles("author"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireRole_NoClaims(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	RequireRole("editor")(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole_AnyOfSeveral(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireRole("editor", "admin")(http.HandlerFunc(okHandler)).ServeHTTP(rr, requestWithRoles("admin"))
	assert.Equal(t, http.StatusOK, rr.Code)
}
