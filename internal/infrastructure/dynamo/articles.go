package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/review-auth-api/internal/domain"
)

// ArticleRepo provides typed DynamoDB operations for the articles table and
// its reviewer-assignment companion table.
type ArticleRepo struct {
	client         *dynamodb.Client
	tableName      string
	reviewersTable string
}

func NewArticleRepo(client *dynamodb.Client, tableName, reviewersTable string) *ArticleRepo {
	return &ArticleRepo{client: client, tableName: tableName, reviewersTable: reviewersTable}
}

func (r *ArticleRepo) Get(ctx context.Context, articleID string) (*domain.Article, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("article_id", articleID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("article not found: %w", domain.ErrNotFound)
	}
	var a domain.Article
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArticleRepo) Put(ctx context.Context, a *domain.Article) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ArticleRepo) UpdateStatus(ctx context.Context, articleID, status string) error {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("article_id", articleID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// PutReviewer upserts a reviewer assignment keyed by (article_id, email).
func (r *ArticleRepo) PutReviewer(ctx context.Context, ra *domain.ReviewerAssignment) error {
	item, err := attributevalue.MarshalMap(ra)
	if err != nil {
		return fmt.Errorf("marshal reviewer assignment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.reviewersTable),
		Item:      item,
	})
	return err
}

func (r *ArticleRepo) GetReviewer(ctx context.Context, articleID, email string) (*domain.ReviewerAssignment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.reviewersTable),
		Key:       compositeKey("article_id", articleID, "email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("reviewer assignment not found: %w", domain.ErrNotFound)
	}
	var ra domain.ReviewerAssignment
	if err := attributevalue.UnmarshalMap(out.Item, &ra); err != nil {
		return nil, err
	}
	return &ra, nil
}
