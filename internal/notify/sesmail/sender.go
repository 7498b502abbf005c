package sesmail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"order-notifier/internal/domain"
)

const charset = "UTF-8"

type api interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Sender delivers HTML emails through SES.
type Sender struct {
	client api
}

// NewSender wraps an SES client.
func NewSender(client api) *Sender {
	return &Sender{client: client}
}

// Send emails e to its single recipient and returns the SES message id.
func (s *Sender) Send(ctx context.Context, e domain.Email) (string, error) {
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(e.From),
		Destination: &types.Destination{
			ToAddresses: []string{e.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(e.Subject), Charset: aws.String(charset)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(e.HTMLBody), Charset: aws.String(charset)},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ses send email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
