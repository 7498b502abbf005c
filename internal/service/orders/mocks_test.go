package orders_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"order-notifier/internal/domain"
)

type mockTopicPublisher struct {
	mock.Mock
}

func (m *mockTopicPublisher) Publish(ctx context.Context, topic, message string) (string, error) {
	args := m.Called(ctx, topic, message)
	return args.String(0), args.Error(1)
}

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) Send(ctx context.Context, email domain.Email) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}
