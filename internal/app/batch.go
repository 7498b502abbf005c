package app

import (
	"context"

	"order-notifier/internal/service/orders"
)

type batchFunc func(ctx context.Context, batch []string) error

// processBatch exposes the runner to the Kafka consumer, which redelivers by
// offset and only needs to know whether the batch of one faulted. Decode
// failures were already logged and skipped.
func processBatch(r *orders.Runner) batchFunc {
	return func(ctx context.Context, batch []string) error {
		return r.Process(ctx, batch).Err
	}
}
