package ua

// RegistrationState is a state of the registration state machine.
type RegistrationState string

// Registration states.
const (
	StateUnregistered  RegistrationState = "unregistered"
	StateRegistering   RegistrationState = "registering"
	StateRegistered    RegistrationState = "registered"
	StateDeregistering RegistrationState = "deregistering"
)

func (s RegistrationState) String() string { return string(s) }

// IsPending reports whether a REGISTER transaction is outstanding in the state.
func (s RegistrationState) IsPending() bool {
	return s == StateRegistering || s == StateDeregistering
}

// Registration state machine triggers.
const (
	regEvtRegister   = "register"
	regEvtDeregister = "deregister"
	regEvtSucceeded  = "succeeded"
	regEvtFailed     = "failed"
)

// Values reported to [Metrics].
const (
	opRegister   = "register"
	opDeregister = "deregister"

	outcomeSuccess    = "success"
	outcomeFailure    = "failure"
	outcomeTimeout    = "timeout"
	outcomeTerminated = "terminated"
)
