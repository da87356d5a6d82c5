package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	jwtinfra "github.com/review-auth-api/internal/infrastructure/jwt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubValidator accepts exactly one token string and returns fixed claims.
type stubValidator struct {
	token  string
	claims *jwtinfra.AccessClaims
}

func (s *stubValidator) ValidateAccessToken(token string) (*jwtinfra.AccessClaims, error) {
	if token == s.token {
		return s.claims, nil
	}
	return nil, errors.New("invalid token")
}

func validClaims(subject string, roles ...string) *jwtinfra.AccessClaims {
	return &jwtinfra.AccessClaims{
		Roles:            roles,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuth_MissingHeader(t *testing.T) {
	v := &stubValidator{token: "good", claims: validClaims("u1")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	Auth(v)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_BadToken(t *testing.T) {
	v := &stubValidator{token: "good", claims: validClaims("u1")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-the-token")
	rr := httptest.NewRecorder()
	Auth(v)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ValidToken_InjectsClaims(t *testing.T) {
	v := &stubValidator{token: "good", claims: validClaims("u1", "reviewer")}

	var gotClaims *jwtinfra.AccessClaims
	captureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	Auth(v)(captureHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "u1", gotClaims.Subject)
	assert.Equal(t, []string{"reviewer"}, gotClaims.Roles)
}
