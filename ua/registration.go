package ua

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/sipua/internal/errorutil"
	"github.com/ghettovoice/sipua/sip"
)

// registration is the REGISTER session state, guarded by Agent.mu.
type registration struct {
	fsm   *stateless.StateMachine
	state RegistrationState
	// expires is the lifetime used by Register, the last accepted positive lifetime.
	expires time.Duration

	callID  string
	fromTag string
	seqNo   uint32

	// req is the request of the outstanding transaction.
	req *sip.Request
	// txID identifies the outstanding transaction, responses of other transactions are dropped.
	txID     uint64
	attempts int
}

func (ag *Agent) initFSM() {
	ag.reg.fsm = stateless.NewStateMachineWithExternalStorage(
		func(context.Context) (stateless.State, error) { return ag.reg.state, nil },
		func(_ context.Context, st stateless.State) error {
			ag.reg.state = st.(RegistrationState) //nolint:forcetypeassert
			return nil
		},
		stateless.FiringImmediate,
	)

	durType := reflect.TypeOf(time.Duration(0))
	resType := reflect.TypeOf((*sip.Response)(nil))
	strType := reflect.TypeOf("")
	ag.reg.fsm.SetTriggerParameters(regEvtRegister, durType)
	ag.reg.fsm.SetTriggerParameters(regEvtDeregister, durType)
	ag.reg.fsm.SetTriggerParameters(regEvtSucceeded, resType)
	ag.reg.fsm.SetTriggerParameters(regEvtFailed, strType, strType)

	ag.reg.fsm.Configure(StateUnregistered).
		OnEntryFrom(regEvtSucceeded, ag.actDeregistered).
		OnEntryFrom(regEvtFailed, ag.actRegisterFailed).
		Permit(regEvtRegister, StateRegistering)

	ag.reg.fsm.Configure(StateRegistering).
		OnEntryFrom(regEvtRegister, ag.actSendRegister).
		Permit(regEvtSucceeded, StateRegistered).
		Permit(regEvtFailed, StateUnregistered)

	ag.reg.fsm.Configure(StateRegistered).
		OnEntryFrom(regEvtSucceeded, ag.actRegistered).
		OnEntryFrom(regEvtFailed, ag.actDeregisterFailed).
		Permit(regEvtRegister, StateRegistering).
		Permit(regEvtDeregister, StateDeregistering)

	ag.reg.fsm.Configure(StateDeregistering).
		OnEntryFrom(regEvtDeregister, ag.actSendRegister).
		Permit(regEvtSucceeded, StateUnregistered).
		Permit(regEvtFailed, StateRegistered)

	ag.reg.fsm.OnTransitioned(ag.stateChanged)
}

// Register registers the contact with the last accepted lifetime,
// [Options.Expires] initially.
func (ag *Agent) Register(ctx context.Context) error {
	ag.mu.Lock()
	expires := ag.reg.expires
	ag.mu.Unlock()

	return errtrace.Wrap(ag.RegisterFor(ctx, expires))
}

// RegisterFor starts a REGISTER transaction with the given lifetime.
// Lifetime is rounded up to whole seconds, zero lifetime removes the binding.
//
// Positive lifetime is allowed in [StateUnregistered] and [StateRegistered] states,
// zero lifetime is allowed only in [StateRegistered] state.
// Otherwise, the call returns an error wrapping [ErrActionNotAllowed] and has no effect.
// The outcome of an accepted call is reported to the [Listener].
func (ag *Agent) RegisterFor(ctx context.Context, expires time.Duration) error {
	if expires < 0 {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError("negative expires %v", expires))
	}
	expires = roundExpires(expires)

	ag.mu.Lock()
	defer ag.unlock()

	return errtrace.Wrap(ag.registerLocked(ctx, expires))
}

// Unregister stops the MWI subscription and removes the binding.
// It is allowed only in [StateRegistered] state, otherwise it returns an error
// wrapping [ErrActionNotAllowed] and has no effect.
func (ag *Agent) Unregister(ctx context.Context) error {
	ag.mu.Lock()
	defer ag.unlock()

	if err := ag.checkTrigger(ctx, regEvtDeregister); err != nil {
		return errtrace.Wrap(err)
	}
	ag.stopMWILocked(ctx)
	return errtrace.Wrap(ag.registerLocked(ctx, 0))
}

func (ag *Agent) registerLocked(ctx context.Context, expires time.Duration) error {
	trg := regEvtRegister
	if expires == 0 {
		trg = regEvtDeregister
	}
	if err := ag.checkTrigger(ctx, trg); err != nil {
		return errtrace.Wrap(err)
	}
	if expires > 0 {
		ag.reg.expires = expires
	}
	return errtrace.Wrap(ag.reg.fsm.FireCtx(ctx, trg, expires))
}

func (ag *Agent) checkTrigger(ctx context.Context, trg string) error {
	if ag.closed {
		return errtrace.Wrap(ErrAgentClosed)
	}
	if ok, _ := ag.reg.fsm.CanFireCtx(ctx, trg); !ok {
		return errtrace.Wrap(newActionNotAllowedError("%s in state %q", trg, ag.reg.state))
	}
	return nil
}

func (ag *Agent) actSendRegister(ctx context.Context, args ...any) error {
	expires := args[0].(time.Duration) //nolint:forcetypeassert

	ag.reg.attempts = 0
	ag.reg.seqNo++
	req := &sip.Request{
		Method:     sip.RequestMethodRegister,
		RequestURI: ag.target.RegistrarURI(),
		From:       ag.target,
		FromTag:    ag.reg.fromTag,
		To:         ag.target,
		Contact:    ag.contact,
		CallID:     ag.reg.callID,
		CSeq:       sip.CSeq{SeqNo: ag.reg.seqNo, Method: sip.RequestMethodRegister},
		Expires:    sip.NewExpires(expires),
	}
	if ag.creds != nil {
		if ok, err := ag.creds.Preauthorize(req); err != nil {
			ag.log.LogAttrs(ctx, slog.LevelWarn, "failed to pre-authorize request",
				slog.Any("agent", ag),
				slog.Any("request", req),
				slog.Any("error", err),
			)
		} else if ok {
			ag.log.LogAttrs(ctx, slog.LevelDebug, "request pre-authorized", slog.Any("agent", ag), slog.Any("request", req))
		}
	}

	ag.sendRegisterLocked(ctx, req)
	return nil
}

// sendRegisterLocked makes req the outstanding transaction and submits it after the agent is unlocked.
func (ag *Agent) sendRegisterLocked(ctx context.Context, req *sip.Request) {
	ag.reg.req = req
	ag.reg.txID++

	hdlr := &regTxHandler{ag: ag, id: ag.reg.txID}
	sendCtx := context.WithoutCancel(ctx)
	ag.enqueue(func() {
		ag.log.LogAttrs(sendCtx, slog.LevelDebug, "send request", slog.Any("agent", ag), slog.Any("request", req))

		if err := ag.sender.SendRequest(sendCtx, req.Clone(), hdlr); err != nil {
			ag.onRegSendError(sendCtx, hdlr.id, err)
		}
	})
}

func (ag *Agent) actRegistered(ctx context.Context, args ...any) error {
	res := args[0].(*sip.Response) //nolint:forcetypeassert

	exp, ok := res.ExpiresHeader()
	if !ok {
		exp = res.MinContactExpires()
	}

	ag.log.LogAttrs(ctx, slog.LevelInfo, "registration succeeded",
		slog.Any("agent", ag),
		slog.Any("response", res),
		slog.Duration("expires", exp),
	)

	ag.metrics.RegistrationCompleted(opRegister, outcomeSuccess)
	result := res.StatusText()
	ag.notify(func(l Listener) { l.OnRegistrationSuccess(ag, ag.target, ag.contact, result) })
	ag.reRegister(ctx, exp)
	return nil
}

func (ag *Agent) actDeregistered(ctx context.Context, args ...any) error {
	res := args[0].(*sip.Response) //nolint:forcetypeassert

	ag.log.LogAttrs(ctx, slog.LevelInfo, "deregistration succeeded", slog.Any("agent", ag), slog.Any("response", res))

	ag.metrics.RegistrationCompleted(opDeregister, outcomeSuccess)
	result := res.StatusText()
	ag.notify(func(l Listener) { l.OnRegistrationSuccess(ag, ag.target, ag.contact, result) })
	return nil
}

func (ag *Agent) actRegisterFailed(ctx context.Context, args ...any) error {
	result, outcome := args[0].(string), args[1].(string) //nolint:forcetypeassert

	ag.log.LogAttrs(ctx, slog.LevelWarn, "registration failed", slog.Any("agent", ag), slog.String("result", result))

	ag.metrics.RegistrationCompleted(opRegister, outcome)
	ag.notify(func(l Listener) { l.OnRegistrationFailure(ag, ag.target, ag.contact, result) })
	ag.reRegister(ctx, ag.timings.RegisterRetry())
	return nil
}

func (ag *Agent) actDeregisterFailed(ctx context.Context, args ...any) error {
	result, outcome := args[0].(string), args[1].(string) //nolint:forcetypeassert

	ag.log.LogAttrs(ctx, slog.LevelWarn, "deregistration failed", slog.Any("agent", ag), slog.String("result", result))

	ag.metrics.RegistrationCompleted(opDeregister, outcome)
	ag.notify(func(l Listener) { l.OnRegistrationFailure(ag, ag.target, ag.contact, result) })
	return nil
}

// regTxHandler binds REGISTER transaction callbacks to the transaction that produced them.
type regTxHandler struct {
	ag *Agent
	id uint64
}

func (h *regTxHandler) OnProvisional(res *sip.Response) {
	h.ag.log.LogAttrs(h.ag.ctx, slog.LevelDebug, "provisional response received",
		slog.Any("agent", h.ag),
		slog.Any("response", res),
	)
}

func (h *regTxHandler) OnSuccess(res *sip.Response) { h.ag.onRegSuccess(h.ag.ctx, h.id, res) }

func (h *regTxHandler) OnFailure(res *sip.Response) { h.ag.onRegFailure(h.ag.ctx, h.id, res) }

func (h *regTxHandler) OnTimeout() { h.ag.onRegTimeout(h.ag.ctx, h.id) }

// activeTxLocked reports whether id is the outstanding REGISTER transaction.
func (ag *Agent) activeTxLocked(ctx context.Context, id uint64) bool {
	if id == ag.reg.txID && ag.reg.state.IsPending() && !ag.closed {
		return true
	}
	ag.log.LogAttrs(ctx, slog.LevelDebug, "drop outcome of superseded transaction", slog.Any("agent", ag))
	return false
}

func (ag *Agent) onRegSuccess(ctx context.Context, id uint64, res *sip.Response) {
	ag.mu.Lock()
	defer ag.unlock()

	if !ag.activeTxLocked(ctx, id) {
		return
	}
	if ag.creds != nil && ag.creds.UpdateNonce(res) {
		ag.log.LogAttrs(ctx, slog.LevelDebug, "next nonce updated", slog.Any("agent", ag))
	}
	ag.reg.txID++
	ag.fire(ctx, regEvtSucceeded, res)
}

func (ag *Agent) onRegFailure(ctx context.Context, id uint64, res *sip.Response) {
	ag.mu.Lock()
	defer ag.unlock()

	if !ag.activeTxLocked(ctx, id) {
		return
	}

	if res.Status.IsChallenge() {
		if req, ok := ag.authorizeLocked(ctx, ag.reg.req, res, ag.reg.attempts); ok {
			ag.reg.attempts++
			ag.reg.seqNo = req.CSeq.SeqNo
			ag.metrics.AuthRetried(req.Method)
			ag.sendRegisterLocked(ctx, req)
			return
		}
	}

	ag.reg.txID++
	ag.fire(ctx, regEvtFailed, res.StatusText(), outcomeFailure)
}

func (ag *Agent) onRegTimeout(ctx context.Context, id uint64) {
	ag.mu.Lock()
	defer ag.unlock()

	if !ag.activeTxLocked(ctx, id) {
		return
	}
	ag.reg.txID++
	ag.fire(ctx, regEvtFailed, "Timeout", outcomeTimeout)
}

func (ag *Agent) onRegSendError(ctx context.Context, id uint64, err error) {
	ag.mu.Lock()
	defer ag.unlock()

	ag.log.LogAttrs(ctx, slog.LevelWarn, "failed to send request", slog.Any("agent", ag), slog.Any("error", err))

	if !ag.activeTxLocked(ctx, id) {
		return
	}
	ag.reg.txID++
	ag.fire(ctx, regEvtFailed, err.Error(), outcomeFailure)
}

// authorizeLocked rebuilds req with the next sequence number and credentials answering the challenge in res.
// It returns false when attempts are exhausted or the challenge can not be answered.
func (ag *Agent) authorizeLocked(ctx context.Context, req *sip.Request, res *sip.Response, attempts int) (*sip.Request, bool) {
	if ag.creds == nil {
		ag.log.LogAttrs(ctx, slog.LevelWarn, "challenge received without credentials",
			slog.Any("agent", ag),
			slog.Any("response", res),
		)
		return nil, false
	}
	if attempts >= MaxAttempts {
		ag.log.LogAttrs(ctx, slog.LevelWarn, "authentication attempts exhausted",
			slog.Any("agent", ag),
			slog.Any("response", res),
			slog.Int("attempts", attempts),
		)
		return nil, false
	}

	req = req.Clone()
	if err := ag.creds.Authorize(req, res); err != nil {
		ag.log.LogAttrs(ctx, slog.LevelWarn, "failed to authorize request",
			slog.Any("agent", ag),
			slog.Any("response", res),
			slog.Any("error", err),
		)
		return nil, false
	}
	req.IncSeqNo()
	return req, true
}

func (ag *Agent) fire(ctx context.Context, trg string, args ...any) {
	if err := ag.reg.fsm.FireCtx(ctx, trg, args...); err != nil {
		ag.log.LogAttrs(ctx, slog.LevelError, "failed to fire registration trigger",
			slog.Any("agent", ag),
			slog.String("trigger", trg),
			slog.Any("error", err),
		)
	}
}

func roundExpires(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return (d + time.Second - 1).Truncate(time.Second)
}
