package ua

import (
	"context"
	"time"

	"github.com/ghettovoice/sipua/sip"
)

// TransactionSender submits requests as client transactions.
// Each submitted request gets its own stream of callbacks delivered to hdlr.
type TransactionSender interface {
	SendRequest(ctx context.Context, req *sip.Request, hdlr TransactionHandler) error
}

// TransactionHandler receives responses of a single client transaction.
// OnSuccess, OnFailure and OnTimeout are terminal, exactly one of them is called.
type TransactionHandler interface {
	OnProvisional(res *sip.Response)
	OnSuccess(res *sip.Response)
	OnFailure(res *sip.Response)
	OnTimeout()
}

// DialogFactory creates subscriber dialogs for the event package.
type DialogFactory interface {
	NewSubscriberDialog(event string, hdlr SubscriptionHandler) (SubscriberDialog, error)
}

// SubscriberDialog is the subscriber side of a SUBSCRIBE/NOTIFY dialog.
// The dialog keeps tags and route set, the agent only supplies requests.
type SubscriberDialog interface {
	Subscribe(ctx context.Context, req *sip.Request) error
	Close() error
}

// SubscriptionHandler receives subscription dialog events.
type SubscriptionHandler interface {
	OnSubscriptionSuccess(res *sip.Response)
	OnSubscriptionFailure(res *sip.Response)
	OnSubscribeTimeout()
	OnSubscriptionTerminated()
	OnNotify(ntf *Notify)
}

// Scheduler re-invokes registration on behalf of the agent.
type Scheduler interface {
	// ReRegister requests the owning application to call [Agent.Register] after delay.
	ReRegister(delay time.Duration)
}

// FeatureToggle reports whether message waiting indication is enabled.
// It is consulted before each subscribe attempt and each NOTIFY delivery.
type FeatureToggle interface {
	MWIEnabled() bool
}

// FeatureToggleFunc is an adapter to use ordinary functions as [FeatureToggle].
type FeatureToggleFunc func() bool

func (f FeatureToggleFunc) MWIEnabled() bool { return f() }

// StaticToggle is a [FeatureToggle] with a fixed value.
type StaticToggle bool

func (t StaticToggle) MWIEnabled() bool { return bool(t) }

// Listener receives agent notifications.
// Methods are called without internal locks held, so they may call back into the agent.
type Listener interface {
	OnRegistrationSuccess(ag *Agent, target, contact sip.NameAddr, result string)
	OnRegistrationFailure(ag *Agent, target, contact sip.NameAddr, result string)
	OnMWIUpdate(ag *Agent, sum MessageSummary)
}

// Metrics collects agent statistics.
// Implementations must be safe for concurrent use and must not call back into the agent.
type Metrics interface {
	// RegistrationCompleted is called once per finished REGISTER cycle.
	// op is "register" or "deregister", outcome is "success", "failure" or "timeout".
	RegistrationCompleted(op, outcome string)
	// AuthRetried is called on each request resubmitted with credentials.
	AuthRetried(method sip.RequestMethod)
	// SubscriptionCompleted is called on each final subscription event,
	// outcome is "success", "failure", "timeout" or "terminated".
	SubscriptionCompleted(outcome string)
	// MWIUpdated is called on each delivered message summary.
	MWIUpdated(sum MessageSummary)
	// StateChanged is called on each registration state transition.
	StateChanged(state RegistrationState)
}

type noopMetrics struct{}

func (noopMetrics) RegistrationCompleted(string, string) {}
func (noopMetrics) AuthRetried(sip.RequestMethod)        {}
func (noopMetrics) SubscriptionCompleted(string)         {}
func (noopMetrics) MWIUpdated(MessageSummary)            {}
func (noopMetrics) StateChanged(RegistrationState)       {}

type noopListener struct{}

func (noopListener) OnRegistrationSuccess(*Agent, sip.NameAddr, sip.NameAddr, string) {}
func (noopListener) OnRegistrationFailure(*Agent, sip.NameAddr, sip.NameAddr, string) {}
func (noopListener) OnMWIUpdate(*Agent, MessageSummary)                              {}

type noopScheduler struct{}

func (noopScheduler) ReRegister(time.Duration) {}
