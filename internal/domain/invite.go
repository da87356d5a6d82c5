package domain

import "time"

// ReviewerInvite is the durable record behind a single-use invitation token.
// Only the SHA-256 hash of the token is stored; the raw value exists once, in
// the email sent to the invited reviewer. Records are never deleted so the
// invitation history stays auditable.
// PK: token_hash.
type ReviewerInvite struct {
	InviteID  string     `json:"id" dynamodbav:"invite_id"`
	TokenHash string     `json:"-" dynamodbav:"token_hash"`
	Email     string     `json:"email" dynamodbav:"email"` // normalized: lowercased, trimmed
	ArticleID string     `json:"article_id" dynamodbav:"article_id"`
	ExpiresAt time.Time  `json:"expires_at" dynamodbav:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty" dynamodbav:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
}

// Usable reports whether the invite can still be resolved or consumed at now.
func (i *ReviewerInvite) Usable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}
