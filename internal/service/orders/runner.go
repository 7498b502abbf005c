package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"order-notifier/internal/domain"
	"order-notifier/internal/logx"
	"order-notifier/internal/metrics"
)

// FailurePolicy decides what the runner does after a transport fault.
type FailurePolicy string

const (
	// FailurePolicyAbort stops the batch at the first faulted item.
	FailurePolicyAbort FailurePolicy = "abort"
	// FailurePolicyContinue records the fault and moves to the next item.
	FailurePolicyContinue FailurePolicy = "continue"
)

// ParseFailurePolicy maps abort|continue to a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FailurePolicyAbort, FailurePolicyContinue:
		return p, nil
	case "":
		return FailurePolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// Outcome is the result of one batch item.
type Outcome string

const (
	OutcomeDelivered    Outcome = "delivered"
	OutcomeDecodeFailed Outcome = "decode_failed"
	OutcomeFailed       Outcome = "failed"
)

// ItemResult describes one processed item. Index is zero-based.
type ItemResult struct {
	Index   int
	OrderID string
	Outcome Outcome
	Err     error
}

// BatchResult lists the items that were processed, in order.
// Items after an abort are absent. Err is nil when every dispatched
// order was delivered.
type BatchResult struct {
	Items []ItemResult
	Err   error
}

// Failed returns the indexes of items whose dispatch failed.
func (r BatchResult) Failed() []int {
	var out []int
	for _, it := range r.Items {
		if it.Outcome == OutcomeFailed {
			out = append(out, it.Index)
		}
	}
	return out
}

// Redeliver returns, in order, the indexes of a batch of size n that
// should be delivered again: failed items and items never attempted after
// an abort or cancellation. Delivered and undecodable items are excluded.
func (r BatchResult) Redeliver(n int) []int {
	seen := make(map[int]Outcome, len(r.Items))
	for _, it := range r.Items {
		seen[it.Index] = it.Outcome
	}
	var out []int
	for i := 0; i < n; i++ {
		if outcome, ok := seen[i]; !ok || outcome == OutcomeFailed {
			out = append(out, i)
		}
	}
	return out
}

// Delivered returns how many orders got both notifications.
func (r BatchResult) Delivered() int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == OutcomeDelivered {
			n++
		}
	}
	return n
}

type parser interface {
	Parse(raw string) (*domain.Order, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, o domain.Order) error
}

// Runner processes batches of raw order messages one item at a time.
type Runner struct {
	parser     parser
	dispatcher dispatcher
	policy     FailurePolicy
	logger     logx.Logger
	metrics    *metrics.Orders
}

// NewRunner wires a Runner. m may be nil.
func NewRunner(p parser, d dispatcher, policy FailurePolicy, logger logx.Logger, m *metrics.Orders) *Runner {
	if policy == "" {
		policy = FailurePolicyAbort
	}
	return &Runner{
		parser:     p,
		dispatcher: d,
		policy:     policy,
		logger:     logger,
		metrics:    m,
	}
}

// Process parses and dispatches every raw message in order. Undecodable
// messages are skipped; a dispatch failure is handled per the failure policy.
func (r *Runner) Process(ctx context.Context, batch []string) BatchResult {
	res := BatchResult{Items: make([]ItemResult, 0, len(batch))}
	var faults []error

	for i, raw := range batch {
		if err := ctx.Err(); err != nil {
			faults = append(faults, err)
			break
		}

		r.logger.Info("processing message", logx.Int("index", i), logx.String("body", raw))

		order, err := r.parser.Parse(raw)
		if err != nil {
			res.Items = append(res.Items, ItemResult{Index: i, Outcome: OutcomeDecodeFailed, Err: err})
			r.metrics.Message(string(OutcomeDecodeFailed))
			continue
		}

		if err := r.dispatcher.Dispatch(ctx, *order); err != nil {
			res.Items = append(res.Items, ItemResult{Index: i, OrderID: order.OrderID, Outcome: OutcomeFailed, Err: err})
			r.metrics.Message(string(OutcomeFailed))
			faults = append(faults, err)
			r.logger.Error("order dispatch failed",
				logx.Int("index", i),
				logx.String("order_id", order.OrderID),
				logx.Err(err),
			)
			if r.policy == FailurePolicyAbort {
				r.logger.Warn("batch aborted",
					logx.Int("index", i),
					logx.Int("skipped", len(batch)-i-1),
				)
				break
			}
			continue
		}

		res.Items = append(res.Items, ItemResult{Index: i, OrderID: order.OrderID, Outcome: OutcomeDelivered})
		r.metrics.Message(string(OutcomeDelivered))
	}

	res.Err = errors.Join(faults...)
	r.logger.Info("batch processed",
		logx.Int("size", len(batch)),
		logx.Int("delivered", res.Delivered()),
		logx.Int("failed", len(res.Failed())),
	)
	return res
}
