package auth

import "github.com/ghettovoice/sipua/internal/errorutil"

const (
	// ErrNoChallenge is returned when the response does not carry a challenge
	// matching its status code.
	ErrNoChallenge errorutil.Error = "no authentication challenge"
	// ErrCannotAuthenticate is returned when the challenge can not be answered
	// with the stored credentials, e.g. the challenge has no realm.
	ErrCannotAuthenticate errorutil.Error = "cannot authenticate"
	// ErrUnsupportedAlgorithm is returned for unknown digest algorithms.
	ErrUnsupportedAlgorithm errorutil.Error = "unsupported digest algorithm"
)

// NewCannotAuthenticateError wraps the reason with [ErrCannotAuthenticate].
func NewCannotAuthenticateError(args ...any) error {
	return errorutil.NewWrapperError(ErrCannotAuthenticate, args...) //errtrace:skip
}

// NewUnsupportedAlgorithmError wraps the algorithm name with [ErrUnsupportedAlgorithm].
func NewUnsupportedAlgorithmError(alg string) error {
	return errorutil.NewWrapperError(ErrUnsupportedAlgorithm, "%q", alg) //errtrace:skip
}
