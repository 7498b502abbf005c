package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"order-notifier/internal/apperr"
	"order-notifier/internal/domain"
	"order-notifier/internal/logx"
)

var errNullOrder = errors.New("message is JSON null")

// Parser decodes raw message text into orders.
type Parser struct {
	logger logx.Logger
}

// NewParser returns a Parser that reports decode failures to logger.
func NewParser(logger logx.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse decodes raw into an Order. On malformed input it logs the failure
// once and returns a nil order with an error wrapping apperr.ErrDecode.
func (p *Parser) Parse(raw string) (*domain.Order, error) {
	data := []byte(raw)
	var o domain.Order
	err := json.Unmarshal(data, &o)
	if err == nil && bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		err = errNullOrder
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", apperr.ErrDecode, err)
		p.logger.Error("order decode failed", logx.Err(err), logx.Int("size", len(data)))
		return nil, err
	}
	return &o, nil
}
