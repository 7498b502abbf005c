package orders

import (
	"context"
	"fmt"
	"strings"

	"order-notifier/internal/apperr"
	"order-notifier/internal/domain"
	"order-notifier/internal/logx"
	"order-notifier/internal/metrics"
)

const (
	channelTopic = "topic"
	channelEmail = "email"
)

// Dispatcher sends the topic and email notifications for one order.
type Dispatcher struct {
	topic   TopicPublisher
	email   EmailSender
	dest    Destinations
	logger  logx.Logger
	metrics *metrics.Orders
}

// NewDispatcher wires a Dispatcher. m may be nil.
func NewDispatcher(topic TopicPublisher, email EmailSender, dest Destinations, logger logx.Logger, m *metrics.Orders) *Dispatcher {
	return &Dispatcher{
		topic:   topic,
		email:   email,
		dest:    dest,
		logger:  logger,
		metrics: m,
	}
}

// Dispatch publishes the topic notification, then sends the email.
// The first failure is returned and the second call is not attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, o domain.Order) error {
	if err := d.PublishTopicNotification(ctx, o); err != nil {
		return err
	}
	return d.SendEmailNotification(ctx, o)
}

// PublishTopicNotification publishes the order summary to the configured topic.
// Without a topic address it logs a configuration error and sends nothing.
func (d *Dispatcher) PublishTopicNotification(ctx context.Context, o domain.Order) error {
	topic := strings.TrimSpace(d.dest.TopicAddress)
	if topic == "" {
		d.logger.Error("topic address is not configured",
			logx.Err(apperr.ErrConfiguration),
			logx.String("order_id", o.OrderID),
		)
		return nil
	}

	id, err := d.topic.Publish(ctx, topic, TopicMessage(o))
	d.metrics.Notification(channelTopic, err)
	if err != nil {
		return fmt.Errorf("%w: publish order %q: %w", apperr.ErrTransport, o.OrderID, err)
	}

	d.logger.Info("topic notification published",
		logx.String("order_id", o.OrderID),
		logx.String("message_id", id),
	)
	return nil
}

// SendEmailNotification emails the order details from the configured sender
// to the configured recipient. Addresses are not validated here.
func (d *Dispatcher) SendEmailNotification(ctx context.Context, o domain.Order) error {
	body, err := EmailBody(o)
	if err != nil {
		return err
	}

	id, err := d.email.Send(ctx, domain.Email{
		From:     d.dest.EmailSender,
		To:       d.dest.EmailRecipient,
		Subject:  EmailSubject(o),
		HTMLBody: body,
	})
	d.metrics.Notification(channelEmail, err)
	if err != nil {
		return fmt.Errorf("%w: send email for order %q: %w", apperr.ErrTransport, o.OrderID, err)
	}

	d.logger.Info("email notification sent",
		logx.String("order_id", o.OrderID),
		logx.String("message_id", id),
	)
	return nil
}
