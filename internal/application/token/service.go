package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/review-auth-api/internal/domain"
	jwtinfra "github.com/review-auth-api/internal/infrastructure/jwt"
	"github.com/review-auth-api/internal/pkg/codes"
)

const refreshKeyPrefix = "refresh:"

// Signer signs access and refresh tokens.
type Signer interface {
	SignAccess(subject string, roles []string) (string, time.Time, error)
	SignRefresh(subject string) (string, time.Time, error)
	VerifyAccess(token string) (*jwtinfra.AccessClaims, error)
	VerifyRefresh(token string) (*jwtinfra.RefreshClaims, error)
}

// KVStore holds the per-user refresh session entry: the SHA-256 hash of the
// single currently-valid refresh token, never the raw token.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UserStore resolves the subject of a presented refresh token.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Pair is a freshly issued access/refresh token pair.
type Pair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type Service interface {
	// IssueTokensForUser creates a token pair and stores the refresh hash,
	// revoking any previously issued refresh token for the user. The only
	// path reachable after successful authentication.
	IssueTokensForUser(ctx context.Context, userID string, roles []string) (*Pair, error)
	// ValidateAccessToken is a pure signature + expiry check; no store lookup.
	ValidateAccessToken(token string) (*jwtinfra.AccessClaims, error)
	// RefreshTokens rotates the pair. Presenting a refresh token whose hash
	// no longer matches the stored session revokes the session entirely.
	RefreshTokens(ctx context.Context, userID, providedRefreshToken string, roles []string) (*Pair, error)
	// RefreshFromToken verifies the presented refresh JWT, resolves its
	// subject's current roles, and delegates to RefreshTokens.
	RefreshFromToken(ctx context.Context, providedRefreshToken string) (*Pair, error)
	// RevokeRefreshForUser deletes the refresh session. Used on sign-out.
	RevokeRefreshForUser(ctx context.Context, userID string) error
}

type ServiceDeps struct {
	Signer     Signer
	KV         KVStore
	UserRepo   UserStore
	RefreshTTL time.Duration
}

type service struct {
	signer     Signer
	kv         KVStore
	userRepo   UserStore
	refreshTTL time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		signer:     deps.Signer,
		kv:         deps.KV,
		userRepo:   deps.UserRepo,
		refreshTTL: deps.RefreshTTL,
	}
}

func (s *service) IssueTokensForUser(ctx context.Context, userID string, roles []string) (*Pair, error) {
	access, accessExp, err := s.signer.SignAccess(userID, roles)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.signer.SignRefresh(userID)
	if err != nil {
		return nil, err
	}
	// Overwriting the entry implicitly revokes any prior refresh token:
	// exactly one live refresh session per user.
	if err := s.kv.SetWithTTL(ctx, refreshKeyPrefix+userID, codes.Hash(refresh), s.refreshTTL); err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *service) ValidateAccessToken(token string) (*jwtinfra.AccessClaims, error) {
	claims, err := s.signer.VerifyAccess(token)
	if err != nil {
		return nil, fmt.Errorf("access token rejected: %w", domain.ErrInvalidToken)
	}
	return claims, nil
}

func (s *service) RefreshTokens(ctx context.Context, userID, providedRefreshToken string, roles []string) (*Pair, error) {
	storedHash, ok, err := s.kv.Get(ctx, refreshKeyPrefix+userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no refresh session for user: %w", domain.ErrRefreshNotFound)
	}
	if !codes.Equal(codes.Hash(providedRefreshToken), storedHash) {
		// Hash mismatch means an already-rotated (possibly stolen) token was
		// replayed. Revoke the whole session rather than failing quietly.
		if delErr := s.kv.Delete(ctx, refreshKeyPrefix+userID); delErr != nil {
			slog.Warn("failed to revoke refresh session after reuse detection", "user_id", userID, "err", delErr)
		}
		slog.Warn("refresh token reuse detected; session revoked", "user_id", userID)
		return nil, fmt.Errorf("refresh token replayed: %w", domain.ErrInvalidRefresh)
	}
	// Rotation: issuing overwrites the stored hash, so the token just used
	// is dead from here on even though it has not expired.
	return s.IssueTokensForUser(ctx, userID, roles)
}

func (s *service) RefreshFromToken(ctx context.Context, providedRefreshToken string) (*Pair, error) {
	claims, err := s.signer.VerifyRefresh(providedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token rejected: %w", domain.ErrInvalidRefresh)
	}
	u, err := s.userRepo.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("refresh subject unknown: %w", domain.ErrInvalidRefresh)
		}
		return nil, err
	}
	return s.RefreshTokens(ctx, u.UserID, providedRefreshToken, u.Roles)
}

func (s *service) RevokeRefreshForUser(ctx context.Context, userID string) error {
	return s.kv.Delete(ctx, refreshKeyPrefix+userID)
}
