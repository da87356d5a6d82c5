package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T, accessTTL time.Duration) *Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewForTest(key, "review-auth-api", accessTTL, 14*24*time.Hour)
}

func TestSignAccess_RoundTrip(t *testing.T) {
	p := testProvider(t, 15*time.Minute)

	token, exp, err := p.SignAccess("user-1", []string{"author", "reviewer"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := p.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, []string{"author", "reviewer"}, claims.Roles)
	assert.Equal(t, "review-auth-api", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestSignAccess_FreshJTIPerToken(t *testing.T) {
	p := testProvider(t, 15*time.Minute)

	t1, _, err := p.SignAccess("user-1", nil)
	require.NoError(t, err)
	t2, _, err := p.SignAccess("user-1", nil)
	require.NoError(t, err)

	c1, err := p.VerifyAccess(t1)
	require.NoError(t, err)
	c2, err := p.VerifyAccess(t2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestVerifyAccess_Expired(t *testing.T) {
	p := testProvider(t, -time.Minute)

	token, _, err := p.SignAccess("user-1", nil)
	require.NoError(t, err)

	_, err = p.VerifyAccess(token)
	assert.Error(t, err)
}

func TestVerifyAccess_RejectsRefreshToken(t *testing.T) {
	p := testProvider(t, 15*time.Minute)

	refresh, _, err := p.SignRefresh("user-1")
	require.NoError(t, err)

	_, err = p.VerifyAccess(refresh)
	assert.Error(t, err)
}

func TestVerifyRefresh_RejectsAccessToken(t *testing.T) {
	p := testProvider(t, 15*time.Minute)

	access, _, err := p.SignAccess("user-1", nil)
	require.NoError(t, err)

	_, err = p.VerifyRefresh(access)
	assert.Error(t, err)
}

func TestVerifyAccess_WrongKey(t *testing.T) {
	p1 := testProvider(t, 15*time.Minute)
	p2 := testProvider(t, 15*time.Minute)

	token, _, err := p1.SignAccess("user-1", nil)
	require.NoError(t, err)

	_, err = p2.VerifyAccess(token)
	assert.Error(t, err)
}

func TestVerifyAccess_Malformed(t *testing.T) {
	p := testProvider(t, 15*time.Minute)
	_, err := p.VerifyAccess("not-a-jwt")
	assert.Error(t, err)
}
