package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/review-auth-api/internal/config"
	"github.com/review-auth-api/internal/pkg/id"
)

// AccessClaims is the payload of a short-lived bearer token. Validity is
// purely cryptographic plus expiry; there is no revocation list.
type AccessClaims struct {
	Roles []string `json:"roles"`
	Type  string   `json:"typ,omitempty"` // empty for access tokens
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. The typ marker keeps a
// refresh token from being accepted where an access token is expected.
type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

const refreshType = "refresh"

// Provider signs and verifies RS256 JWTs.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{
		privateKey: privKey,
		publicKey:  pubKey,
		issuer:     cfg.JWTIssuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// NewForTest builds a provider from an in-memory key pair. Test helper.
func NewForTest(key *rsa.PrivateKey, issuer string, accessTTL, refreshTTL time.Duration) *Provider {
	return &Provider{
		privateKey: key,
		publicKey:  &key.PublicKey,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SignAccess builds and signs an access token for subject with a fresh jti.
// Returns the signed token and its expiry.
func (p *Provider) SignAccess(subject string, roles []string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(p.accessTTL)
	claims := AccessClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   subject,
			ID:        id.New(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.privateKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// SignRefresh builds and signs a refresh token for subject.
func (p *Provider) SignRefresh(subject string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(p.refreshTTL)
	claims := RefreshClaims{
		Type: refreshType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   subject,
			ID:        id.New(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.privateKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccess checks signature and expiry of an access token. A refresh
// token is rejected here even when its signature is valid.
func (p *Provider) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := p.parse(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.Type != "" {
		return nil, errors.New("not an access token")
	}
	return &claims, nil
}

// VerifyRefresh checks signature, expiry and the typ=refresh marker.
func (p *Provider) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := p.parse(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.Type != refreshType {
		return nil, errors.New("not a refresh token")
	}
	return &claims, nil
}

func (p *Provider) parse(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	}, jwt.WithIssuer(p.issuer))
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token claims")
	}
	return nil
}
