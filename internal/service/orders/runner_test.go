package orders_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"order-notifier/internal/apperr"
	"order-notifier/internal/domain"
	"order-notifier/internal/metrics"
	"order-notifier/internal/service/orders"
	testlog "order-notifier/internal/testutil"
)

// callLog records outbound calls in the order they happen.
type callLog struct {
	mu        sync.Mutex
	calls     []string
	failEmail map[string]error
	failTopic map[string]error
}

func (c *callLog) record(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *callLog) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type logPublisher struct{ log *callLog }

func (p logPublisher) Publish(_ context.Context, _ string, message string) (string, error) {
	rest, _ := strings.CutPrefix(message, "Pedido recibido: ID=")
	id, _, _ := strings.Cut(rest, ",")
	p.log.record("publish:" + id)
	if err := p.log.failTopic[id]; err != nil {
		return "", err
	}
	return "m-" + id, nil
}

type logSender struct{ log *callLog }

func (s logSender) Send(_ context.Context, e domain.Email) (string, error) {
	id := e.Subject[len("Nuevo Pedido Recibido: "):]
	s.log.record("email:" + id)
	if err := s.log.failEmail[id]; err != nil {
		return "", err
	}
	return "e-" + id, nil
}

func rawOrder(id string) string {
	return fmt.Sprintf(`{"orderId":%q,"productId":"P","quantity":1,"totalPrice":1,"customerName":"C","createdAt":"now"}`, id)
}

func newTestRunner(t *testing.T, log *callLog, policy orders.FailurePolicy) (*orders.Runner, *testlog.Recorder) {
	t.Helper()
	rec := testlog.New()
	logger := rec.Logger()
	m, err := metrics.NewOrders(prometheus.NewRegistry())
	require.NoError(t, err)

	d := orders.NewDispatcher(logPublisher{log: log}, logSender{log: log}, testDestinations(), logger, m)
	return orders.NewRunner(orders.NewParser(logger), d, policy, logger, m), rec
}

func TestRunner_Process_AllDelivered_InOrder(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	r, _ := newTestRunner(t, log, orders.FailurePolicyAbort)

	res := r.Process(context.Background(), []string{rawOrder("A"), rawOrder("B"), rawOrder("C")})
	require.NoError(t, res.Err)
	require.Equal(t, 3, res.Delivered())
	require.Empty(t, res.Failed())
	require.Equal(t, []string{
		"publish:A", "email:A",
		"publish:B", "email:B",
		"publish:C", "email:C",
	}, log.Calls())
}

func TestRunner_Process_TransportFault_AbortsRemaining(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("ses throttled")
	log := &callLog{failEmail: map[string]error{"B": sentinel}}
	r, rec := newTestRunner(t, log, orders.FailurePolicyAbort)

	res := r.Process(context.Background(), []string{rawOrder("A"), rawOrder("B"), rawOrder("C"), rawOrder("D")})

	require.ErrorIs(t, res.Err, apperr.ErrTransport)
	require.ErrorIs(t, res.Err, sentinel)
	require.Equal(t, []string{"publish:A", "email:A", "publish:B", "email:B"}, log.Calls())
	require.Len(t, res.Items, 2)
	require.Equal(t, orders.OutcomeDelivered, res.Items[0].Outcome)
	require.Equal(t, orders.OutcomeFailed, res.Items[1].Outcome)
	require.Equal(t, "B", res.Items[1].OrderID)
	require.Equal(t, []int{1}, res.Failed())
	require.Equal(t, []int{1, 2, 3}, res.Redeliver(4))
	require.True(t, rec.Has("batch aborted"))
}

func TestRunner_Process_PublishFault_NoEmailForThatItem(t *testing.T) {
	t.Parallel()

	log := &callLog{failTopic: map[string]error{"A": errors.New("sns down")}}
	r, _ := newTestRunner(t, log, orders.FailurePolicyAbort)

	res := r.Process(context.Background(), []string{rawOrder("A"), rawOrder("B")})
	require.Error(t, res.Err)
	require.Equal(t, []string{"publish:A"}, log.Calls())
}

func TestRunner_Process_ContinuePolicy_ProcessesAll(t *testing.T) {
	t.Parallel()

	log := &callLog{failEmail: map[string]error{"A": errors.New("x"), "C": errors.New("y")}}
	r, _ := newTestRunner(t, log, orders.FailurePolicyContinue)

	res := r.Process(context.Background(), []string{rawOrder("A"), rawOrder("B"), rawOrder("C")})
	require.ErrorIs(t, res.Err, apperr.ErrTransport)
	require.Equal(t, []int{0, 2}, res.Failed())
	require.Equal(t, 1, res.Delivered())
	require.Equal(t, []int{0, 2}, res.Redeliver(3))
	require.Len(t, log.Calls(), 6)
}

func TestRunner_Process_DecodeFailure_SkipsItem(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	r, rec := newTestRunner(t, log, orders.FailurePolicyAbort)

	res := r.Process(context.Background(), []string{rawOrder("A"), "{broken", rawOrder("C")})
	require.NoError(t, res.Err)
	require.Equal(t, []string{"publish:A", "email:A", "publish:C", "email:C"}, log.Calls())
	require.Len(t, res.Items, 3)
	require.Equal(t, orders.OutcomeDecodeFailed, res.Items[1].Outcome)
	require.ErrorIs(t, res.Items[1].Err, apperr.ErrDecode)
	require.Empty(t, res.Redeliver(3))
	require.True(t, rec.Has("order decode failed"))
}

func TestRunner_Process_LogsEveryMessageAtInfo(t *testing.T) {
	t.Parallel()

	r, rec := newTestRunner(t, &callLog{}, orders.FailurePolicyAbort)
	r.Process(context.Background(), []string{rawOrder("A"), "{broken"})

	var bodies []any
	for _, e := range rec.Entries() {
		if e.Msg == "processing message" {
			require.Equal(t, "info", e.Level)
			v, _ := e.Field("body")
			bodies = append(bodies, v)
		}
	}
	require.Equal(t, []any{rawOrder("A"), "{broken"}, bodies)
}

func TestRunner_Process_EmptyBatch(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	r, _ := newTestRunner(t, log, orders.FailurePolicyAbort)

	res := r.Process(context.Background(), nil)
	require.NoError(t, res.Err)
	require.Empty(t, res.Items)
	require.Empty(t, log.Calls())
}

func TestRunner_Process_CanceledContext_StopsBeforeFirstItem(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := &callLog{}
	r, _ := newTestRunner(t, log, orders.FailurePolicyContinue)

	res := r.Process(ctx, []string{rawOrder("A")})
	require.ErrorIs(t, res.Err, context.Canceled)
	require.Equal(t, []int{0}, res.Redeliver(1))
	require.Empty(t, log.Calls())
}

func TestParseFailurePolicy(t *testing.T) {
	t.Parallel()

	p, err := orders.ParseFailurePolicy(" Continue ")
	require.NoError(t, err)
	require.Equal(t, orders.FailurePolicyContinue, p)

	p, err = orders.ParseFailurePolicy("")
	require.NoError(t, err)
	require.Equal(t, orders.FailurePolicyAbort, p)

	_, err = orders.ParseFailurePolicy("retry")
	require.Error(t, err)
}
