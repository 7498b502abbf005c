package sqsevent

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"order-notifier/internal/logx"
	"order-notifier/internal/service/orders"
)

// ProcessFunc processes one batch of raw order messages.
type ProcessFunc func(ctx context.Context, batch []string) orders.BatchResult

// Handler adapts SQS-triggered Lambda invocations to a ProcessFunc.
type Handler struct {
	process ProcessFunc
	logger  logx.Logger
}

// NewHandler returns a Lambda handler for SQS events.
func NewHandler(process ProcessFunc, logger logx.Logger) *Handler {
	return &Handler{process: process, logger: logger}
}

// Handle runs the records of one event as a single batch, in delivery order,
// and reports partial batch failures: records whose dispatch failed and
// records left unprocessed after an abort. SQS redelivers only those, so the
// event source mapping needs ReportBatchItemFailures enabled.
func (h *Handler) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	batch := make([]string, 0, len(ev.Records))
	for _, r := range ev.Records {
		batch = append(batch, r.Body)
	}

	h.logger.Info("sqs batch received", logx.Int("records", len(batch)))
	res := h.process(ctx, batch)

	var resp events.SQSEventResponse
	for _, i := range res.Redeliver(len(batch)) {
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
			ItemIdentifier: ev.Records[i].MessageId,
		})
	}

	if len(resp.BatchItemFailures) > 0 {
		h.logger.Error("sqs batch failed",
			logx.Int("redeliver", len(resp.BatchItemFailures)),
			logx.Err(res.Err),
		)
	}
	return resp, nil
}
