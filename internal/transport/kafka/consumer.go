package kafka

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"

	"order-notifier/internal/logx"
)

// HandleFunc processes one batch of raw order messages.
type HandleFunc func(ctx context.Context, batch []string) error

var newConsumerGroup = sarama.NewConsumerGroup

// Consumer wraps a Sarama consumer group and hands every message value
// to the handler as a batch of one.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler HandleFunc
	logger  logx.Logger
	backoff time.Duration

	// set by a claim that stopped on a handler fault
	faulted atomic.Bool
}

// NewConsumer creates a consumer. It returns nil, nil when Kafka is not configured.
func NewConsumer(logger logx.Logger, brokers []string, groupID, topic string, h HandleFunc) (*Consumer, error) {
	// без брокеров воркер не стартует
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := newConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:   group,
		topic:   topic,
		handler: h,
		logger:  logger,
		backoff: time.Second,
	}, nil
}

// Run consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	h := &groupHandler{c: c}
	c.logger.Info("kafka consumer started", logx.String("topic", c.topic))

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("kafka consume error", logx.Err(err), logx.Duration("backoff", c.backoff))
			if err := c.wait(ctx); err != nil {
				return err
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.faulted.Swap(false) {
			c.logger.Warn("kafka handler fault, rejoining after backoff", logx.Duration("backoff", c.backoff))
			if err := c.wait(ctx); err != nil {
				return err
			}
		}
	}
}

func (c *Consumer) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.backoff):
		return nil
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks a message once its batch has no transport fault.
// On a fault the offset stays unmarked and the session ends, so the
// message is delivered again after the rebalance.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.c.handler(sess.Context(), []string{string(msg.Value)}); err != nil {
			h.c.logger.Error("kafka handle failed",
				logx.Int("partition", int(msg.Partition)),
				logx.Any("offset", msg.Offset),
				logx.Err(err),
			)
			h.c.faulted.Store(true)
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
