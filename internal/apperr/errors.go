package apperr

import "errors"

// ErrDecode is returned when a raw message does not match the order shape.
var ErrDecode = errors.New("decode order")

// ErrConfiguration indicates a missing or invalid setting.
var ErrConfiguration = errors.New("configuration")

// ErrTransport wraps failures of the outbound notification services.
var ErrTransport = errors.New("notification transport")
