package ua_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/ghettovoice/sipua/auth"
	"github.com/ghettovoice/sipua/internal/testutil/uamock"
	"github.com/ghettovoice/sipua/sip"
	"github.com/ghettovoice/sipua/ua"
)

var (
	target  = sip.MustParseNameAddr("sip:alice@example.com")
	contact = sip.MustParseNameAddr("sip:alice@192.0.2.10:5060")
)

type sentRequest struct {
	req  *sip.Request
	hdlr ua.TransactionHandler
}

type stubSender struct {
	mu   sync.Mutex
	sent []sentRequest
	err  error
}

func (s *stubSender) SendRequest(_ context.Context, req *sip.Request, hdlr ua.TransactionHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentRequest{req, hdlr})
	return nil
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *stubSender) last(t *testing.T) sentRequest {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sent) == 0 {
		t.Fatal("no requests sent")
	}
	return s.sent[len(s.sent)-1]
}

type stubDialog struct {
	hdlr ua.SubscriptionHandler

	mu     sync.Mutex
	reqs   []*sip.Request
	closed bool
}

func (d *stubDialog) Subscribe(_ context.Context, req *sip.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)
	return nil
}

func (d *stubDialog) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *stubDialog) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *stubDialog) lastReq(t *testing.T) *sip.Request {
	t.Helper()

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.reqs) == 0 {
		t.Fatal("no SUBSCRIBE sent")
	}
	return d.reqs[len(d.reqs)-1]
}

type stubDialogs struct {
	mu      sync.Mutex
	dialogs []*stubDialog
	created chan *stubDialog
}

func newStubDialogs() *stubDialogs {
	return &stubDialogs{created: make(chan *stubDialog, 16)}
}

func (f *stubDialogs) NewSubscriberDialog(event string, hdlr ua.SubscriptionHandler) (ua.SubscriberDialog, error) {
	if event != ua.MWIEvent {
		return nil, sip.NewInvalidArgumentError("unexpected event %q", event)
	}

	dlg := &stubDialog{hdlr: hdlr}
	f.mu.Lock()
	f.dialogs = append(f.dialogs, dlg)
	f.mu.Unlock()

	select {
	case f.created <- dlg:
	default:
	}
	return dlg, nil
}

func (f *stubDialogs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dialogs)
}

func (f *stubDialogs) last(t *testing.T) *stubDialog {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.dialogs) == 0 {
		t.Fatal("no dialogs created")
	}
	return f.dialogs[len(f.dialogs)-1]
}

// drain discards notifications about already created dialogs.
func (f *stubDialogs) drain() {
	for {
		select {
		case <-f.created:
		default:
			return
		}
	}
}

func (f *stubDialogs) waitCreated(t *testing.T, timeout time.Duration) *stubDialog {
	t.Helper()

	select {
	case dlg := <-f.created:
		return dlg
	case <-time.After(timeout):
		t.Fatalf("no dialog created in %v", timeout)
		return nil
	}
}

type testEnv struct {
	ag      *ua.Agent
	sender  *stubSender
	dialogs *stubDialogs
	sched   *uamock.MockScheduler
	lstnr   *uamock.MockListener
	toggle  *toggle
}

type toggle struct {
	mu sync.Mutex
	on bool
}

func (tg *toggle) MWIEnabled() bool {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.on
}

func (tg *toggle) set(on bool) {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.on = on
}

func newTestEnv(t *testing.T, modify ...func(opts *ua.Options)) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	env := &testEnv{
		sender:  &stubSender{},
		dialogs: newStubDialogs(),
		sched:   uamock.NewMockScheduler(ctrl),
		lstnr:   uamock.NewMockListener(ctrl),
		toggle:  &toggle{on: true},
	}
	opts := &ua.Options{
		Target:      target,
		Contact:     contact,
		Credentials: auth.NewCredentials("alice", "", "secret"),
		Expires:     time.Hour,
		Sender:      env.sender,
		Dialogs:     env.dialogs,
		Scheduler:   env.sched,
		Toggle:      env.toggle,
		Listener:    env.lstnr,
		Timings:     ua.NewTimings(0, 20*time.Millisecond, 0),
	}
	for _, fn := range modify {
		fn(opts)
	}

	ag, err := ua.NewAgent(opts)
	if err != nil {
		t.Fatalf("ua.NewAgent() error = %v, want nil", err)
	}
	env.ag = ag
	t.Cleanup(func() { ag.Close() })
	return env
}

// register drives the agent to the registered state.
func (env *testEnv) register(t *testing.T) {
	t.Helper()

	env.lstnr.EXPECT().OnRegistrationSuccess(env.ag, target, contact, "200 OK")
	env.sched.EXPECT().ReRegister(gomock.Any())

	if err := env.ag.RegisterFor(t.Context(), time.Hour); err != nil {
		t.Fatalf("ag.RegisterFor() error = %v, want nil", err)
	}
	sent := env.sender.last(t)
	res := sip.NewResponse(sent.req, sip.ResponseStatusOK, "")
	res.Expires = sip.NewExpires(time.Hour)
	sent.hdlr.OnSuccess(res)

	if got, want := env.ag.State(), ua.StateRegistered; got != want {
		t.Fatalf("ag.State() = %q, want %q", got, want)
	}
}

// subscribe starts MWI and confirms the subscription.
func (env *testEnv) subscribe(t *testing.T, exp time.Duration) *stubDialog {
	t.Helper()

	if err := env.ag.StartMWI(t.Context()); err != nil {
		t.Fatalf("ag.StartMWI() error = %v, want nil", err)
	}
	dlg := env.dialogs.last(t)
	env.dialogs.drain()

	res := sip.NewResponse(dlg.lastReq(t), sip.ResponseStatusOK, "")
	res.Expires = sip.NewExpires(exp)
	dlg.hdlr.OnSubscriptionSuccess(res)

	if !env.ag.IsSubscribed() {
		t.Fatal("ag.IsSubscribed() = false, want true")
	}
	return dlg
}

func challenge(req *sip.Request, sts sip.ResponseStatus, realm string, qop ...string) *sip.Response {
	res := sip.NewResponse(req, sts, "")
	chal := &sip.Challenge{Scheme: "Digest", Realm: realm, Nonce: sip.GenerateTag(), QOP: qop}
	if sts == sip.ResponseStatusProxyAuthenticationRequired {
		res.ProxyAuthenticate = []*sip.Challenge{chal}
	} else {
		res.WWWAuthenticate = []*sip.Challenge{chal}
	}
	return res
}
