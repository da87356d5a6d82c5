package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/review-auth-api/internal/domain"
)

// InviteRepo provides typed DynamoDB operations for the reviewer-invites table.
type InviteRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewInviteRepo(client *dynamodb.Client, tableName string) *InviteRepo {
	return &InviteRepo{client: client, tableName: tableName}
}

func (r *InviteRepo) Put(ctx context.Context, inv *domain.ReviewerInvite) error {
	item, err := attributevalue.MarshalMap(inv)
	if err != nil {
		return fmt.Errorf("marshal invite: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *InviteRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.ReviewerInvite, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token_hash", tokenHash),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("invite not found: %w", domain.ErrNotFound)
	}
	var inv domain.ReviewerInvite
	if err := attributevalue.UnmarshalMap(out.Item, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkUsed sets used_at on the invite identified by tokenHash, conditioned on
// used_at being absent. Two concurrent consumers race on the condition and
// exactly one wins; the loser gets domain.ErrConflict.
func (r *InviteRepo) MarkUsed(ctx context.Context, tokenHash string, usedAt time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("token_hash", tokenHash),
		UpdateExpression:    aws.String("SET used_at = :t"),
		ConditionExpression: aws.String("attribute_exists(token_hash) AND attribute_not_exists(used_at)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: usedAt.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		var ccfe *types.ConditionalCheckFailedException
		if errors.As(err, &ccfe) {
			return fmt.Errorf("invite already used: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}
