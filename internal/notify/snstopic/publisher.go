package snstopic

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type api interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher publishes plain-text messages to SNS topics.
type Publisher struct {
	client api
}

// NewPublisher wraps an SNS client.
func NewPublisher(client api) *Publisher {
	return &Publisher{client: client}
}

// Publish sends message to the topic ARN and returns the SNS message id.
func (p *Publisher) Publish(ctx context.Context, topic, message string) (string, error) {
	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topic),
		Message:  aws.String(message),
	})
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
