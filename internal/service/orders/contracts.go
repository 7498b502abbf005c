package orders

import (
	"context"

	"order-notifier/internal/domain"
)

// TopicPublisher broadcasts a text message to a named topic and returns
// the identifier assigned by the messaging service.
type TopicPublisher interface {
	Publish(ctx context.Context, topic, message string) (string, error)
}

// EmailSender sends one email and returns the provider message identifier.
type EmailSender interface {
	Send(ctx context.Context, email domain.Email) (string, error)
}

// Destinations are the configured notification targets.
type Destinations struct {
	TopicAddress   string
	EmailSender    string
	EmailRecipient string
}
