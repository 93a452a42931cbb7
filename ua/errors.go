package ua

import "github.com/ghettovoice/sipua/internal/errorutil"

const (
	// ErrActionNotAllowed is returned when the operation is not allowed in the current registration state.
	ErrActionNotAllowed errorutil.Error = "action not allowed"
	// ErrMalformedBody is returned when a NOTIFY body can not be parsed.
	ErrMalformedBody errorutil.Error = "malformed body"
	// ErrAgentClosed is returned by operations called after [Agent.Close].
	ErrAgentClosed errorutil.Error = "agent closed"
	// ErrInvalidArgument is returned for invalid options and arguments.
	ErrInvalidArgument = errorutil.ErrInvalidArgument
)

func newActionNotAllowedError(args ...any) error {
	return errorutil.NewWrapperError(ErrActionNotAllowed, args...) //errtrace:skip
}

func newMalformedBodyError(args ...any) error {
	return errorutil.NewWrapperError(ErrMalformedBody, args...) //errtrace:skip
}
