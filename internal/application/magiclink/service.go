package magiclink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/review-auth-api/internal/domain"
	"github.com/review-auth-api/internal/pkg/codes"
)

// Key layout in the ephemeral store. The code entry is keyed by the bare
// email address; the companion keys carry a prefix.
const (
	resendKeyPrefix = "resend-"
	countKeyPrefix  = "resend-count-"
	verifyKeyPrefix = "verify-"
)

const (
	codeTTL         = 5 * time.Minute
	verifiedTTL     = 7 * 24 * time.Hour
	verifiedMarker  = "verified"
	emailLinkLength = codes.DefaultLength
)

// Backoff returns the resend backoff for the given prior send count:
// 30s for the first send, 60s for the second, 120s after that. The schedule
// is per-email so one address's abuse does not throttle others.
func Backoff(count int64) time.Duration {
	switch count {
	case 0:
		return 30 * time.Second
	case 1:
		return 60 * time.Second
	default:
		return 120 * time.Second
	}
}

// UserStore is the slice of the user repository this service needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// KVStore is the ephemeral store holding codes, throttle keys and markers.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Increment(ctx context.Context, key string) (int64, error)
}

// Mailer sends the magic-link email.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// VerifyResult is the outcome of a successful verification. User is set only
// for sign-in verifications; sign-up flows complete the profile before any
// tokens are issued.
type VerifyResult struct {
	User *domain.User
}

type Service interface {
	// SignUp starts a passwordless registration for email.
	SignUp(ctx context.Context, email string) error
	// SendMagicLink generates a code and emails a sign-in link, subject to
	// the per-email resend backoff.
	SendMagicLink(ctx context.Context, email string) error
	// VerifyMagicLink checks a submitted code. All per-email state (code,
	// throttle, counter) is cleared on success; codes are single-use.
	VerifyMagicLink(ctx context.Context, email, token string, isSignUp bool) (*VerifyResult, error)
	// ResendMagicLink re-sends the code under the same backoff policy.
	ResendMagicLink(ctx context.Context, email string) error
}

type ServiceDeps struct {
	UserRepo        UserStore
	KV              KVStore
	Mailer          Mailer
	FrontendBaseURL string
}

type service struct {
	userRepo    UserStore
	kv          KVStore
	mailer      Mailer
	frontendURL string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:    deps.UserRepo,
		kv:          deps.KV,
		mailer:      deps.Mailer,
		frontendURL: deps.FrontendBaseURL,
	}
}

func (s *service) SignUp(ctx context.Context, email string) error {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("account exists for %s: %w", email, domain.ErrEmailExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if _, live, err := s.kv.Get(ctx, email); err != nil {
		return err
	} else if live {
		return fmt.Errorf("code already outstanding: %w", domain.ErrTooManyRequests)
	}

	if _, live, err := s.kv.Get(ctx, verifyKeyPrefix+email); err != nil {
		return err
	} else if live {
		return fmt.Errorf("email recently verified: %w", domain.ErrEmailVerified)
	}

	return s.SendMagicLink(ctx, email)
}

func (s *service) SendMagicLink(ctx context.Context, email string) error {
	count, err := s.resendCount(ctx, email)
	if err != nil {
		return err
	}

	// SetNX both checks and arms the throttle key, so two concurrent sends
	// cannot both pass.
	armed, err := s.kv.SetNX(ctx, resendKeyPrefix+email, email, Backoff(count))
	if err != nil {
		return err
	}
	if !armed {
		return fmt.Errorf("resend backoff active: %w", domain.ErrTooManyRequests)
	}

	code, err := codes.Generate(emailLinkLength)
	if err != nil {
		return err
	}
	if err := s.kv.SetWithTTL(ctx, email, code, codeTTL); err != nil {
		return err
	}
	if _, err := s.kv.Increment(ctx, countKeyPrefix+email); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/verify?email=%s&token=%s",
		s.frontendURL, url.QueryEscape(email), url.QueryEscape(code))
	body := "Follow this link to sign in:\n\n" + link +
		"\n\nThe link expires in 5 minutes. If you did not request it, ignore this email."
	return s.mailer.SendEmail(email, "Your sign-in link", body)
}

func (s *service) VerifyMagicLink(ctx context.Context, email, token string, isSignUp bool) (*VerifyResult, error) {
	stored, live, err := s.kv.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	// An absent entry (expired or never requested) is a failure, not a pass.
	if !live || !codes.Equal(stored, token) {
		return nil, fmt.Errorf("code mismatch or expired: %w", domain.ErrInvalidToken)
	}

	// Single-use: clear the code and the whole throttle state for the email.
	for _, key := range []string{email, resendKeyPrefix + email, countKeyPrefix + email} {
		if err := s.kv.Delete(ctx, key); err != nil {
			slog.Warn("failed to clear verification key", "key", key, "err", err)
		}
	}

	if isSignUp {
		if err := s.kv.SetWithTTL(ctx, verifyKeyPrefix+email, verifiedMarker, verifiedTTL); err != nil {
			return nil, err
		}
		return &VerifyResult{}, nil
	}

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no account for %s: %w", email, domain.ErrInvalidToken)
		}
		return nil, err
	}
	return &VerifyResult{User: u}, nil
}

func (s *service) ResendMagicLink(ctx context.Context, email string) error {
	return s.SendMagicLink(ctx, email)
}

func (s *service) resendCount(ctx context.Context, email string) (int64, error) {
	v, ok, err := s.kv.Get(ctx, countKeyPrefix+email)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// A corrupt counter should not lock the email out; treat as fresh.
		slog.Warn("unparseable resend counter", "email", email, "value", v)
		return 0, nil
	}
	return n, nil
}
