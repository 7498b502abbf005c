package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Order is one purchase event as carried by a queue message.
// Absent keys leave zero values; nothing is validated.
type Order struct {
	OrderID      string          `json:"orderId"`
	ProductID    string          `json:"productId"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	CustomerName string          `json:"customerName"`
	CreatedAt    string          `json:"createdAt"`
}

// UnmarshalJSON decodes an order. Text fields also accept JSON numbers and
// booleans, kept as their literal text (e.g. epoch-millis createdAt).
func (o *Order) UnmarshalJSON(data []byte) error {
	var w struct {
		OrderID      scalarText      `json:"orderId"`
		ProductID    scalarText      `json:"productId"`
		Quantity     int             `json:"quantity"`
		TotalPrice   decimal.Decimal `json:"totalPrice"`
		CustomerName scalarText      `json:"customerName"`
		CreatedAt    scalarText      `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = Order{
		OrderID:      string(w.OrderID),
		ProductID:    string(w.ProductID),
		Quantity:     w.Quantity,
		TotalPrice:   w.TotalPrice,
		CustomerName: string(w.CustomerName),
		CreatedAt:    string(w.CreatedAt),
	}
	return nil
}

// TotalFixed returns the total rounded to cents, half away from zero.
func (o Order) TotalFixed() string {
	return o.TotalPrice.StringFixed(2)
}

// scalarText is a JSON string, number or boolean read as text.
type scalarText string

func (t *scalarText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = scalarText(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*t = scalarText(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*t = scalarText(n.String())
	}
	return nil
}
