package ua

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/sipua/auth"
	"github.com/ghettovoice/sipua/internal/types"
	"github.com/ghettovoice/sipua/sip"
)

// StateChangedFunc is called on each registration state transition.
type StateChangedFunc = func(ctx context.Context, from, to RegistrationState)

// Agent keeps a contact registered with a registrar and maintains
// the message waiting indication subscription.
//
// All methods are safe for concurrent use. Listener and observer callbacks
// are called after internal locks are released, in the order the events occurred
// within a single call.
type Agent struct {
	target,
	contact sip.NameAddr
	creds   *auth.Credentials
	sender  TransactionSender
	dialogs DialogFactory
	sched   Scheduler
	toggle  FeatureToggle
	lstnr   Listener
	metrics Metrics
	timings TimingConfig
	log     *slog.Logger

	// ctx lives until Close, it is used by background work.
	ctx    context.Context
	cancel context.CancelFunc

	halted atomic.Bool

	mu       sync.Mutex
	closed   bool
	deferred []func()

	reg registration
	sub subscription

	onStateChanged types.CallbackManager[StateChangedFunc]
}

// NewAgent creates a new agent in [StateUnregistered] state.
func NewAgent(opts *Options) (*Agent, error) {
	if err := opts.Validate(); err != nil {
		return nil, errtrace.Wrap(err)
	}

	ag := &Agent{
		target:  opts.Target,
		contact: opts.Contact,
		creds:   opts.Credentials,
		sender:  opts.Sender,
		dialogs: opts.Dialogs,
		sched:   opts.scheduler(),
		toggle:  opts.toggle(),
		lstnr:   opts.listener(),
		metrics: opts.metrics(),
		timings: opts.Timings,
		log:     opts.log(),
	}
	ag.ctx, ag.cancel = context.WithCancel(context.Background())
	ag.reg.state = StateUnregistered
	ag.reg.expires = roundExpires(opts.expires())
	ag.reg.callID = sip.GenerateCallID()
	ag.reg.fromTag = sip.GenerateTag()
	ag.initFSM()
	return ag, nil
}

// Target returns the registered address of record.
func (ag *Agent) Target() sip.NameAddr { return ag.target }

// Contact returns the registered contact address.
func (ag *Agent) Contact() sip.NameAddr { return ag.contact }

// State returns the current registration state.
func (ag *Agent) State() RegistrationState {
	ag.mu.Lock()
	defer ag.mu.Unlock()
	return ag.reg.state
}

// IsRegistered reports whether the agent is registered or is registering.
func (ag *Agent) IsRegistered() bool {
	st := ag.State()
	return st == StateRegistered || st == StateRegistering
}

// IsSubscribed reports whether the MWI subscription is active.
func (ag *Agent) IsSubscribed() bool {
	ag.mu.Lock()
	defer ag.mu.Unlock()
	return ag.sub.subscribed
}

// OnStateChanged registers a registration state observer.
// The returned function unregisters it.
func (ag *Agent) OnStateChanged(fn StateChangedFunc) (cancel func()) {
	return ag.onStateChanged.Add(fn)
}

// Halt detaches the listener and the scheduler.
// In-flight exchanges are not aborted, but their outcomes are no longer reported.
func (ag *Agent) Halt() {
	if ag.halted.CompareAndSwap(false, true) {
		ag.log.LogAttrs(ag.ctx, slog.LevelDebug, "agent halted", slog.Any("agent", ag))
	}
}

// Close halts the agent, stops subscription timers and closes the subscription dialog.
// Operations called after Close return [ErrAgentClosed].
func (ag *Agent) Close() error {
	ag.Halt()

	ag.mu.Lock()
	defer ag.unlock()

	if ag.closed {
		return nil
	}
	ag.closed = true
	ag.reg.txID++
	ag.resetDialogLocked()
	ag.cancel()

	ag.log.LogAttrs(ag.ctx, slog.LevelDebug, "agent closed", slog.Any("agent", ag))
	return nil
}

func (ag *Agent) LogValue() slog.Value {
	if ag == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Any("target", ag.target),
		slog.Any("contact", ag.contact),
	)
}

// unlock releases the agent mutex and runs deferred work queued while it was held.
func (ag *Agent) unlock() {
	fns := ag.deferred
	ag.deferred = nil
	ag.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (ag *Agent) enqueue(fn func()) { ag.deferred = append(ag.deferred, fn) }

func (ag *Agent) notify(fn func(l Listener)) {
	ag.enqueue(func() {
		if ag.halted.Load() {
			return
		}
		fn(ag.lstnr)
	})
}

func (ag *Agent) reRegister(ctx context.Context, delay time.Duration) {
	ag.enqueue(func() {
		if ag.halted.Load() {
			return
		}
		ag.log.LogAttrs(ctx, slog.LevelDebug, "request re-registration",
			slog.Any("agent", ag),
			slog.Duration("delay", delay),
		)
		ag.sched.ReRegister(delay)
	})
}

func (ag *Agent) stateChanged(ctx context.Context, tr stateless.Transition) {
	from, _ := tr.Source.(RegistrationState)
	to, _ := tr.Destination.(RegistrationState)

	ag.log.LogAttrs(ctx, slog.LevelDebug, "registration state changed",
		slog.Any("agent", ag),
		slog.String("trigger", tr.Trigger.(string)), //nolint:forcetypeassert
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)

	ag.metrics.StateChanged(to)
	ag.enqueue(func() {
		for fn := range ag.onStateChanged.All() {
			fn(ctx, from, to)
		}
	})
}
