package ua

import (
	"context"
	"log/slog"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipua/internal/timeutil"
	"github.com/ghettovoice/sipua/sip"
)

// subscription is the MWI subscription state, guarded by Agent.mu.
//
// Each subscribe cycle gets its own dialog and generation.
// Dialog callbacks and timers capture the generation and are dropped if it has changed.
type subscription struct {
	dialog SubscriberDialog
	gen    uint64
	// pending is the last SUBSCRIBE sent within the dialog.
	pending    *sip.Request
	subscribed bool
	attempts   int

	renewTmr,
	retryTmr *timeutil.Timer
}

// StartMWI starts the MWI subscription.
// It is a no-op if the agent is already subscribed or MWI is disabled.
func (ag *Agent) StartMWI(ctx context.Context) error {
	ag.mu.Lock()
	defer ag.unlock()

	if ag.closed {
		return errtrace.Wrap(ErrAgentClosed)
	}
	return errtrace.Wrap(ag.startMWILocked(ctx))
}

// StopMWI stops the MWI subscription and reports an empty [MessageSummary] to the listener
// before return.
func (ag *Agent) StopMWI() {
	ag.mu.Lock()
	defer ag.unlock()

	ag.stopMWILocked(ag.ctx)
}

func (ag *Agent) startMWILocked(ctx context.Context) error {
	if ag.sub.subscribed {
		ag.log.LogAttrs(ctx, slog.LevelDebug, "already subscribed", slog.Any("agent", ag))
		return nil
	}
	if ag.dialogs == nil || !ag.toggle.MWIEnabled() {
		ag.log.LogAttrs(ctx, slog.LevelDebug, "MWI disabled", slog.Any("agent", ag))
		return nil
	}

	ag.resetDialogLocked()
	return errtrace.Wrap(ag.subscribeLocked(ctx, ag.newSubscribeRequest()))
}

func (ag *Agent) stopMWILocked(ctx context.Context) {
	ag.log.LogAttrs(ctx, slog.LevelDebug, "stop MWI", slog.Any("agent", ag))

	ag.resetDialogLocked()
	ag.sub.attempts = 0
	ag.notify(func(l Listener) { l.OnMWIUpdate(ag, MessageSummary{}) })
}

// resetDialogLocked invalidates the current dialog with its callbacks and timers.
// The dialog is closed after the agent is unlocked.
func (ag *Agent) resetDialogLocked() {
	ag.sub.gen++
	ag.sub.subscribed = false
	ag.sub.pending = nil
	ag.sub.renewTmr.Stop()
	ag.sub.renewTmr = nil
	ag.sub.retryTmr.Stop()
	ag.sub.retryTmr = nil

	if dlg := ag.sub.dialog; dlg != nil {
		ag.sub.dialog = nil
		ag.enqueue(func() {
			if err := dlg.Close(); err != nil {
				ag.log.LogAttrs(ag.ctx, slog.LevelWarn, "failed to close subscription dialog",
					slog.Any("agent", ag),
					slog.Any("error", err),
				)
			}
		})
	}
}

func (ag *Agent) newSubscribeRequest() *sip.Request {
	return &sip.Request{
		Method:     sip.RequestMethodSubscribe,
		RequestURI: ag.target.URI,
		From:       ag.target,
		FromTag:    sip.GenerateTag(),
		To:         ag.target,
		Contact:    ag.contact,
		CallID:     sip.GenerateCallID(),
		CSeq:       sip.CSeq{SeqNo: 1, Method: sip.RequestMethodSubscribe},
		Expires:    sip.NewExpires(ag.timings.SubscriptionExpires()),
		Event:      MWIEvent,
		Accept:     []string{MWIContentType},
	}
}

// subscribeLocked opens a new dialog for req and sends it after the agent is unlocked.
func (ag *Agent) subscribeLocked(ctx context.Context, req *sip.Request) error {
	gen := ag.sub.gen
	hdlr := &subHandler{ag: ag, gen: gen}
	dlg, err := ag.dialogs.NewSubscriberDialog(MWIEvent, hdlr)
	if err != nil {
		return errtrace.Wrap(err)
	}
	ag.sub.dialog = dlg
	ag.sub.pending = req

	sendCtx := context.WithoutCancel(ctx)
	ag.enqueue(func() {
		ag.log.LogAttrs(sendCtx, slog.LevelDebug, "send request", slog.Any("agent", ag), slog.Any("request", req))

		if err := dlg.Subscribe(sendCtx, req.Clone()); err != nil {
			ag.onSubscribeError(sendCtx, gen, err)
		}
	})
	return nil
}

// retryLocked schedules a new subscribe cycle while the retry budget allows it.
func (ag *Agent) retryLocked(ctx context.Context) {
	if ag.sub.attempts >= MaxAttempts {
		ag.log.LogAttrs(ctx, slog.LevelWarn, "subscribe attempts exhausted",
			slog.Any("agent", ag),
			slog.Int("attempts", ag.sub.attempts),
		)
		return
	}
	ag.sub.attempts++

	gen := ag.sub.gen
	ag.sub.retryTmr.Stop()
	ag.sub.retryTmr = timeutil.AfterFunc(ag.timings.SubscribeRetry(), func() {
		ag.mu.Lock()
		defer ag.unlock()

		if !ag.activeGenLocked(ag.ctx, gen) {
			return
		}
		ag.log.LogAttrs(ag.ctx, slog.LevelDebug, "retry subscribe", slog.Any("agent", ag), slog.Int("attempt", ag.sub.attempts))
		if err := ag.startMWILocked(ag.ctx); err != nil {
			ag.log.LogAttrs(ag.ctx, slog.LevelWarn, "failed to restart MWI", slog.Any("agent", ag), slog.Any("error", err))
		}
	})

	ag.log.LogAttrs(ctx, slog.LevelDebug, "subscribe retry scheduled",
		slog.Any("agent", ag),
		slog.Int("attempt", ag.sub.attempts),
		slog.Time("expires_at", time.Now().Add(ag.sub.retryTmr.Left())),
	)
}

func (ag *Agent) armRenewalLocked(ctx context.Context, exp time.Duration) {
	gen := ag.sub.gen
	ag.sub.renewTmr = timeutil.AfterFunc(exp, func() {
		ag.mu.Lock()
		defer ag.unlock()

		if !ag.activeGenLocked(ag.ctx, gen) {
			return
		}
		ag.log.LogAttrs(ag.ctx, slog.LevelDebug, "renew subscription", slog.Any("agent", ag))

		ag.sub.subscribed = false
		ag.sub.attempts = 0
		if err := ag.startMWILocked(ag.ctx); err != nil {
			ag.log.LogAttrs(ag.ctx, slog.LevelWarn, "failed to renew subscription", slog.Any("agent", ag), slog.Any("error", err))
		}
	})

	ag.log.LogAttrs(ctx, slog.LevelDebug, "renewal timer started",
		slog.Any("agent", ag),
		slog.Time("expires_at", time.Now().Add(ag.sub.renewTmr.Left())),
	)
}

// activeGenLocked reports whether gen is the generation of the current dialog.
func (ag *Agent) activeGenLocked(ctx context.Context, gen uint64) bool {
	if gen == ag.sub.gen && ag.sub.dialog != nil && !ag.closed {
		return true
	}
	ag.log.LogAttrs(ctx, slog.LevelDebug, "drop event of stale subscription", slog.Any("agent", ag))
	return false
}

// subHandler binds dialog callbacks to the subscription generation that created the dialog.
type subHandler struct {
	ag  *Agent
	gen uint64
}

func (h *subHandler) OnSubscriptionSuccess(res *sip.Response) {
	h.ag.onSubSuccess(h.ag.ctx, h.gen, res)
}

func (h *subHandler) OnSubscriptionFailure(res *sip.Response) {
	h.ag.onSubFailure(h.ag.ctx, h.gen, res)
}

func (h *subHandler) OnSubscribeTimeout() { h.ag.onSubTimeout(h.ag.ctx, h.gen) }

func (h *subHandler) OnSubscriptionTerminated() { h.ag.onSubTerminated(h.ag.ctx, h.gen) }

func (h *subHandler) OnNotify(ntf *Notify) { h.ag.onNotify(h.ag.ctx, h.gen, ntf) }

func (ag *Agent) onSubSuccess(ctx context.Context, gen uint64, res *sip.Response) {
	ag.mu.Lock()
	defer ag.unlock()

	if !ag.activeGenLocked(ctx, gen) {
		return
	}
	if ag.sub.subscribed {
		ag.log.LogAttrs(ctx, slog.LevelDebug, "drop repeated subscription success", slog.Any("agent", ag))
		return
	}

	exp, ok := res.ExpiresHeader()
	if !ok && ag.sub.pending != nil && ag.sub.pending.Expires != nil {
		exp = ag.sub.pending.Expires.Duration()
	}

	ag.log.LogAttrs(ctx, slog.LevelInfo, "subscription succeeded",
		slog.Any("agent", ag),
		slog.Any("response", res),
		slog.Duration("expires", exp),
	)
	ag.metrics.SubscriptionCompleted(outcomeSuccess)

	if exp <= 0 {
		return
	}
	ag.sub.subscribed = true
	ag.armRenewalLocked(ctx, exp)
}

func (ag *Agent) onSubFailure(ctx context.Context, gen uint64, res *sip.Response) {
	ag.mu.Lock()
	defer ag.unlock()

	if !ag.activeGenLocked(ctx, gen) {
		return
	}

	ag.log.LogAttrs(ctx, slog.LevelWarn, "subscription failed", slog.Any("agent", ag), slog.Any("response", res))
	ag.metrics.SubscriptionCompleted(outcomeFailure)

	if res.Status.IsChallenge() && ag.sub.pending != nil {
		if req, ok := ag.authorizeLocked(ctx, ag.sub.pending, res, ag.sub.attempts); ok {
			ag.sub.attempts++
			ag.metrics.AuthRetried(req.Method)
			ag.resetDialogLocked()
			if err := ag.subscribeLocked(ctx, req); err != nil {
				ag.log.LogAttrs(ctx, slog.LevelWarn, "failed to create subscription dialog", slog.Any("agent", ag), slog.Any("error", err))
			}
			return
		}
	}
	ag.retryLocked(ctx)
}

func (ag *Agent) onSubTimeout(ctx context.Context, gen uint64) {
	ag.mu.Lock()
	defer ag.unlock()

	if !ag.activeGenLocked(ctx, gen) {
		return
	}

	ag.log.LogAttrs(ctx, slog.LevelWarn, "subscribe timed out", slog.Any("agent", ag))
	ag.metrics.SubscriptionCompleted(outcomeTimeout)
	ag.retryLocked(ctx)
}

func (ag *Agent) onSubscribeError(ctx context.Context, gen uint64, err error) {
	ag.mu.Lock()
	defer ag.unlock()

	ag.log.LogAttrs(ctx, slog.LevelWarn, "failed to send subscribe", slog.Any("agent", ag), slog.Any("error", err))

	if !ag.activeGenLocked(ctx, gen) {
		return
	}
	ag.metrics.SubscriptionCompleted(outcomeFailure)
	ag.retryLocked(ctx)
}

func (ag *Agent) onSubTerminated(ctx context.Context, gen uint64) {
	ag.mu.Lock()
	defer ag.unlock()

	if !ag.activeGenLocked(ctx, gen) {
		return
	}

	ag.log.LogAttrs(ctx, slog.LevelInfo, "subscription terminated", slog.Any("agent", ag))
	ag.metrics.SubscriptionCompleted(outcomeTerminated)

	ag.sub.subscribed = false
	if err := ag.startMWILocked(ctx); err != nil {
		ag.log.LogAttrs(ctx, slog.LevelWarn, "failed to restart MWI", slog.Any("agent", ag), slog.Any("error", err))
	}
}

func (ag *Agent) onNotify(ctx context.Context, gen uint64, ntf *Notify) {
	ag.mu.Lock()
	defer ag.unlock()

	if !ag.activeGenLocked(ctx, gen) {
		return
	}
	if !ag.toggle.MWIEnabled() {
		ag.log.LogAttrs(ctx, slog.LevelDebug, "drop NOTIFY, MWI disabled", slog.Any("agent", ag))
		return
	}

	sum, err := ParseMessageSummary(ntf.Body)
	if err != nil {
		ag.log.LogAttrs(ctx, slog.LevelWarn, "drop NOTIFY with malformed body",
			slog.Any("agent", ag),
			slog.Any("notify", ntf),
			slog.Any("error", err),
		)
		return
	}

	ag.log.LogAttrs(ctx, slog.LevelDebug, "message summary received", slog.Any("agent", ag), slog.Any("summary", sum))
	ag.metrics.MWIUpdated(sum)
	ag.notify(func(l Listener) { l.OnMWIUpdate(ag, sum) })
}
