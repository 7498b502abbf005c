package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// NewMessagesTotal returns a counter of processed queue messages by outcome.
func NewMessagesTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_messages_total",
		Help: "Total number of order messages handled by the batch runner, by outcome",
	}, []string{"outcome"})
}

// NewNotificationsTotal returns a counter of outbound notification attempts.
func NewNotificationsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_notifications_total",
		Help: "Total number of outbound notification attempts, by channel and result",
	}, []string{"channel", "result"})
}

// Orders groups the counters used by the order pipeline.
// A nil *Orders records nothing.
type Orders struct {
	messages      *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewOrders registers the pipeline counters on reg, reusing collectors
// that are already registered under the same name.
func NewOrders(reg prometheus.Registerer) (*Orders, error) {
	messages, err := register(reg, NewMessagesTotal())
	if err != nil {
		return nil, fmt.Errorf("register orders_messages_total: %w", err)
	}
	notifications, err := register(reg, NewNotificationsTotal())
	if err != nil {
		return nil, fmt.Errorf("register orders_notifications_total: %w", err)
	}
	return &Orders{messages: messages, notifications: notifications}, nil
}

// Message counts one handled message.
func (o *Orders) Message(outcome string) {
	if o == nil {
		return
	}
	o.messages.WithLabelValues(outcome).Inc()
}

// Notification counts one outbound call on channel ("topic" or "email").
func (o *Orders) Notification(channel string, err error) {
	if o == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.notifications.WithLabelValues(channel, result).Inc()
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}
