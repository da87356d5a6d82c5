package decision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	inviteapp "github.com/review-auth-api/internal/application/invite"
	"github.com/review-auth-api/internal/domain"
	"github.com/review-auth-api/internal/infrastructure/sns"
)

// Decisions a reviewer can take on an invitation.
const (
	DecisionAccept  = "accept"
	DecisionDecline = "decline"
)

// InviteConsumer is the slice of the invite service this service needs.
type InviteConsumer interface {
	Resolve(ctx context.Context, rawToken string) (*inviteapp.Resolution, error)
	Consume(ctx context.Context, rawToken string) (*inviteapp.Resolution, error)
}

// ArticleStore mutates the reviewer/article domain after a consumed invite.
type ArticleStore interface {
	Get(ctx context.Context, articleID string) (*domain.Article, error)
	UpdateStatus(ctx context.Context, articleID, status string) error
	PutReviewer(ctx context.Context, ra *domain.ReviewerAssignment) error
}

// EventPublisher fans the decision out to notification consumers.
type EventPublisher interface {
	PublishDecision(ctx context.Context, ev sns.DecisionEvent) error
}

// Outcome reports the state after a decision was applied.
type Outcome struct {
	ArticleID      string `json:"article_id"`
	ArticleStatus  string `json:"article_status"`
	ReviewerStatus string `json:"reviewer_status"`
}

type Service interface {
	// Decide applies an accept/decline outcome for the invite behind
	// rawToken. callerEmail is the authenticated identity; it must match the
	// invite's email or the call fails with ErrAccessDenied before the
	// token is consumed.
	Decide(ctx context.Context, callerEmail, rawToken, decision string) (*Outcome, error)
}

type ServiceDeps struct {
	Invites   InviteConsumer
	Articles  ArticleStore
	Publisher EventPublisher
}

type service struct {
	invites   InviteConsumer
	articles  ArticleStore
	publisher EventPublisher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		invites:   deps.Invites,
		articles:  deps.Articles,
		publisher: deps.Publisher,
	}
}

func (s *service) Decide(ctx context.Context, callerEmail, rawToken, decision string) (*Outcome, error) {
	if decision != DecisionAccept && decision != DecisionDecline {
		return nil, fmt.Errorf("unknown decision %q: %w", decision, domain.ErrBadRequest)
	}

	// Check the identity against a read-only resolve first so a mismatched
	// caller cannot burn the invite for its rightful owner.
	res, err := s.invites.Resolve(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	if inviteapp.NormalizeEmail(callerEmail) != res.Email {
		return nil, fmt.Errorf("caller is not the invited reviewer: %w", domain.ErrAccessDenied)
	}

	// Consume before mutating any reviewer/article state; this is the
	// single-use gate.
	if _, err := s.invites.Consume(ctx, rawToken); err != nil {
		return nil, err
	}

	reviewerStatus := domain.ReviewerStatusDeclined
	if decision == DecisionAccept {
		reviewerStatus = domain.ReviewerStatusAccepted
	}
	if err := s.articles.PutReviewer(ctx, &domain.ReviewerAssignment{
		ArticleID: res.ArticleID,
		Email:     res.Email,
		Status:    reviewerStatus,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	article, err := s.articles.Get(ctx, res.ArticleID)
	if err != nil {
		return nil, err
	}
	if decision == DecisionAccept && article.Status != domain.ArticleStatusUnderReview {
		if err := s.articles.UpdateStatus(ctx, res.ArticleID, domain.ArticleStatusUnderReview); err != nil {
			return nil, err
		}
		article.Status = domain.ArticleStatusUnderReview
	}

	if s.publisher != nil {
		ev := sns.DecisionEvent{
			ArticleID:     res.ArticleID,
			ReviewerEmail: res.Email,
			Decision:      decision,
			DecidedAt:     time.Now().UTC(),
		}
		if err := s.publisher.PublishDecision(ctx, ev); err != nil {
			slog.Warn("failed to publish reviewer decision event", "article_id", res.ArticleID, "err", err)
		}
	}

	return &Outcome{
		ArticleID:      res.ArticleID,
		ArticleStatus:  article.Status,
		ReviewerStatus: reviewerStatus,
	}, nil
}
