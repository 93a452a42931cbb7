package sip

import "github.com/ghettovoice/sipua/internal/errorutil"

// Common errors.
const (
	ErrInvalidArgument = errorutil.ErrInvalidArgument
	ErrInvalidMessage  Error = "invalid message"
	ErrInvalidHeader   Error = "invalid header"
)

// Error represents a SIP error.
// See [errorutil.Error].
type Error = errorutil.Error

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}

// NewInvalidHeaderError creates a new error with [ErrInvalidHeader] or
// wraps provided error with [ErrInvalidHeader].
func NewInvalidHeaderError(args ...any) error {
	return errorutil.NewWrapperError(ErrInvalidHeader, args...) //errtrace:skip
}
