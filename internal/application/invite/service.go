package invite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/review-auth-api/internal/domain"
	"github.com/review-auth-api/internal/pkg/codes"
	"github.com/review-auth-api/internal/pkg/id"
)

const inviteTTL = 7 * 24 * time.Hour

// InviteStore is the durable store of invite records.
type InviteStore interface {
	Put(ctx context.Context, inv *domain.ReviewerInvite) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.ReviewerInvite, error)
	MarkUsed(ctx context.Context, tokenHash string, usedAt time.Time) error
}

// Mailer delivers the invitation email.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// Resolution is what a valid invite token resolves to.
type Resolution struct {
	Email     string `json:"email"`
	ArticleID string `json:"article_id"`
}

type Service interface {
	// CreateInvite stores a new invite and returns the raw token. Only the
	// SHA-256 hash is persisted; the raw value exists in the return value
	// and nowhere else.
	CreateInvite(ctx context.Context, email, articleID string) (string, error)
	// Propose creates an invite for email on articleID and emails the
	// invitation link. Editor-initiated entry point.
	Propose(ctx context.Context, email, articleID string) error
	// Resolve looks an invite up by token. Side-effect-free; callable any
	// number of times while the invite is live.
	Resolve(ctx context.Context, rawToken string) (*Resolution, error)
	// Consume resolves and marks the invite used, exactly once. A second
	// call with the same token fails even before expiry.
	Consume(ctx context.Context, rawToken string) (*Resolution, error)
}

type ServiceDeps struct {
	Invites         InviteStore
	Mailer          Mailer
	FrontendBaseURL string
	Now             func() time.Time // defaults to time.Now
}

type service struct {
	invites     InviteStore
	mailer      Mailer
	frontendURL string
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		invites:     deps.Invites,
		mailer:      deps.Mailer,
		frontendURL: deps.FrontendBaseURL,
		now:         now,
	}
}

// NormalizeEmail lowercases and trims an address the way invites store it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) CreateInvite(ctx context.Context, email, articleID string) (string, error) {
	raw, err := codes.Generate(codes.DefaultLength)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	inv := &domain.ReviewerInvite{
		InviteID:  id.New(),
		TokenHash: codes.Hash(raw),
		Email:     NormalizeEmail(email),
		ArticleID: articleID,
		ExpiresAt: now.Add(inviteTTL),
		CreatedAt: now,
	}
	if err := s.invites.Put(ctx, inv); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *service) Propose(ctx context.Context, email, articleID string) error {
	raw, err := s.CreateInvite(ctx, email, articleID)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/reviewer-invite?token=%s", s.frontendURL, url.QueryEscape(raw))
	body := "You have been invited to review a manuscript.\n\n" +
		"Open the invitation here:\n\n" + link +
		"\n\nThe invitation expires in 7 days."
	return s.mailer.SendEmail(NormalizeEmail(email), "Reviewer invitation", body)
}

func (s *service) Resolve(ctx context.Context, rawToken string) (*Resolution, error) {
	inv, err := s.lookup(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	return &Resolution{Email: inv.Email, ArticleID: inv.ArticleID}, nil
}

func (s *service) Consume(ctx context.Context, rawToken string) (*Resolution, error) {
	inv, err := s.lookup(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	// Conditional write: of two concurrent consumers exactly one sets
	// used_at, the other sees the condition fail.
	if err := s.invites.MarkUsed(ctx, inv.TokenHash, s.now().UTC()); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("invite already used: %w", domain.ErrInvalidToken)
		}
		return nil, err
	}
	return &Resolution{Email: inv.Email, ArticleID: inv.ArticleID}, nil
}

func (s *service) lookup(ctx context.Context, rawToken string) (*domain.ReviewerInvite, error) {
	inv, err := s.invites.GetByTokenHash(ctx, codes.Hash(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown invite token: %w", domain.ErrInvalidToken)
		}
		return nil, err
	}
	if !inv.Usable(s.now()) {
		return nil, fmt.Errorf("invite used or expired: %w", domain.ErrInvalidToken)
	}
	return inv, nil
}
