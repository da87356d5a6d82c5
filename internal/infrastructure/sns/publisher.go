package sns

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/review-auth-api/internal/config"
)

// DecisionEvent is published when a reviewer accepts or declines an invite.
// Downstream notification consumers (editor dashboards, digest emails) fan
// out from the topic.
type DecisionEvent struct {
	ArticleID     string    `json:"article_id"`
	ReviewerEmail string    `json:"reviewer_email"`
	Decision      string    `json:"decision"` // "accept" | "decline"
	DecidedAt     time.Time `json:"decided_at"`
}

// EventPublisher publishes reviewer decision events.
type EventPublisher interface {
	PublishDecision(ctx context.Context, ev DecisionEvent) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

func NewPublisher(cfg *config.Config) (EventPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSTopicARN}, nil
}

func (p *publisher) PublishDecision(ctx context.Context, ev DecisionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := string(body)
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  &msg,
	})
	return err
}
