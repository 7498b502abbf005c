package orders_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"order-notifier/internal/apperr"
	"order-notifier/internal/domain"
	"order-notifier/internal/service/orders"
	testlog "order-notifier/internal/testutil"
)

func TestParser_Parse_WellFormed(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	p := orders.NewParser(rec.Logger())

	raw := `{"orderId":"O1","productId":"P1","quantity":2,"totalPrice":19.5,` +
		`"customerName":"Ana","createdAt":"2025-01-02T03:04:05Z","extra":true}`

	got, err := p.Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Equal(t, "O1", got.OrderID)
	require.Equal(t, "P1", got.ProductID)
	require.Equal(t, 2, got.Quantity)
	require.True(t, got.TotalPrice.Equal(decimal.RequireFromString("19.5")))
	require.Equal(t, "Ana", got.CustomerName)
	require.Equal(t, "2025-01-02T03:04:05Z", got.CreatedAt)
	require.Zero(t, rec.Count(""))
}

func TestParser_Parse_QuotedTotalAndMissingKeys(t *testing.T) {
	t.Parallel()

	p := orders.NewParser(testlog.New().Logger())

	got, err := p.Parse(`{"orderId":"O2","totalPrice":"10.10"}`)
	require.NoError(t, err)
	require.Equal(t, domain.Order{OrderID: "O2", TotalPrice: got.TotalPrice}, *got)
	require.Equal(t, "10.10", got.TotalFixed())
}

func TestParser_Parse_NumericIDsAndEpochCreatedAt(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	p := orders.NewParser(rec.Logger())

	got, err := p.Parse(`{"orderId":42,"productId":"P1","quantity":1,"totalPrice":5,` +
		`"customerName":"Ana","createdAt":1735786800000}`)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "42", got.OrderID)
	require.Equal(t, "1735786800000", got.CreatedAt)
	require.Equal(t, "5.00", got.TotalFixed())
	require.Zero(t, rec.Count(""))
}

func TestParser_Parse_Invalid_ReturnsNilAndLogsOnce(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"not-json",
		"{",
		"null",
		"[1,2]",
		`"order"`,
		`{"orderId":{"id":42}}`,
		`{"quantity":"two"}`,
		`{"totalPrice":"abc"}`,
	}

	for _, in := range inputs {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()

			rec := testlog.New()
			p := orders.NewParser(rec.Logger())

			var (
				got *domain.Order
				err error
			)
			require.NotPanics(t, func() { got, err = p.Parse(in) })
			require.Nil(t, got)
			require.ErrorIs(t, err, apperr.ErrDecode)

			entries := rec.Entries()
			require.Len(t, entries, 1)
			require.Equal(t, "error", entries[0].Level)
			require.Equal(t, "order decode failed", entries[0].Msg)
		})
	}
}
