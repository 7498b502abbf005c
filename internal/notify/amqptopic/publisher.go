package amqptopic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher broadcasts messages to RabbitMQ fanout exchanges.
// The topic address is used as the exchange name.
type Publisher struct {
	conn *amqp.Connection
	ch   channel

	mu       sync.Mutex
	declared map[string]bool
}

// Dial connects to RabbitMQ and opens a channel.
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp open channel: %w", err)
	}
	p := newPublisher(ch)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel) *Publisher {
	return &Publisher{ch: ch, declared: make(map[string]bool)}
}

// Publish declares the exchange on first use and publishes a persistent
// text/plain message. It returns the generated message id.
func (p *Publisher) Publish(ctx context.Context, topic, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := p.declare(topic); err != nil {
		return "", err
	}

	id := uuid.NewString()
	err := p.ch.Publish(topic, "", false, false, amqp.Publishing{
		ContentType:  "text/plain",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    time.Now().UTC(),
		Body:         []byte(message),
	})
	if err != nil {
		return "", fmt.Errorf("amqp publish to %q: %w", topic, err)
	}
	return id, nil
}

func (p *Publisher) declare(exchange string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.declared[exchange] {
		return nil
	}
	if err := p.ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp declare exchange %q: %w", exchange, err)
	}
	p.declared[exchange] = true
	return nil
}

// Close closes the channel, then the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
