package domain

import "time"

// Article statuses relevant to the reviewing workflow.
const (
	ArticleStatusSubmitted   = "submitted"
	ArticleStatusUnderReview = "under_review"
)

// Reviewer assignment statuses.
const (
	ReviewerStatusInvited  = "invited"
	ReviewerStatusAccepted = "accepted"
	ReviewerStatusDeclined = "declined"
)

type Article struct {
	ArticleID     string    `json:"id" dynamodbav:"article_id"`
	Title         string    `json:"title" dynamodbav:"title"`
	AuthorID      string    `json:"author_id" dynamodbav:"author_id"`
	Status        string    `json:"status" dynamodbav:"status"`
	ManuscriptKey string    `json:"-" dynamodbav:"manuscript_key"` // S3 object key of the uploaded PDF
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

// ReviewerAssignment ties a reviewer (by normalized email) to an article.
// PK: article_id, SK: email.
type ReviewerAssignment struct {
	ArticleID string    `json:"article_id" dynamodbav:"article_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Status    string    `json:"status" dynamodbav:"status"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}
