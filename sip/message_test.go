package sip_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/sipua/sip"
)

func newRegisterRequest() *sip.Request {
	return &sip.Request{
		Method:     sip.RequestMethodRegister,
		RequestURI: "sip:example.com",
		From:       sip.MustParseNameAddr("sip:alice@example.com"),
		To:         sip.MustParseNameAddr("sip:alice@example.com"),
		Contact:    sip.MustParseNameAddr("sip:alice@192.0.2.10"),
		CallID:     "call-1",
		CSeq:       sip.CSeq{SeqNo: 1, Method: sip.RequestMethodRegister},
		Expires:    sip.NewExpires(time.Hour),
		Accept:     []string{"application/sdp"},
		Headers:    sip.Headers{"User-Agent": {"sipua"}},
	}
}

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(r *sip.Request)
		wantErr error
	}{
		{"valid", func(*sip.Request) {}, nil},
		{"empty method", func(r *sip.Request) { r.Method = "" }, sip.ErrInvalidArgument},
		{"empty uri", func(r *sip.Request) { r.RequestURI = "" }, sip.ErrInvalidArgument},
		{"empty call-id", func(r *sip.Request) { r.CallID = "" }, sip.ErrInvalidArgument},
		{"cseq mismatch", func(r *sip.Request) { r.CSeq.Method = sip.RequestMethodSubscribe }, sip.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := newRegisterRequest()
			tt.modify(req)
			if diff := cmp.Diff(tt.wantErr, req.Validate(), cmpopts.EquateErrors()); diff != "" {
				t.Errorf("req.Validate() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	var nilReq *sip.Request
	if err := nilReq.Validate(); err == nil {
		t.Error("nil req.Validate() = nil, want error")
	}
}

func TestRequest_Clone(t *testing.T) {
	t.Parallel()

	req := newRegisterRequest()
	req.Authorization = &sip.Authorization{Scheme: "Digest", Username: "alice"}

	clone := req.Clone()
	if diff := cmp.Diff(req, clone); diff != "" {
		t.Fatalf("req.Clone() mismatch (-want +got):\n%s", diff)
	}

	clone.IncSeqNo()
	*clone.Expires = 0
	clone.Authorization.Username = "bob"
	clone.Headers["User-Agent"][0] = "other"

	if req.CSeq.SeqNo != 1 {
		t.Errorf("original CSeq = %d, want 1", req.CSeq.SeqNo)
	}
	if *req.Expires != 3600 {
		t.Errorf("original Expires = %d, want 3600", *req.Expires)
	}
	if req.Authorization.Username != "alice" {
		t.Errorf("original Authorization.Username = %q, want %q", req.Authorization.Username, "alice")
	}
	if req.Headers["User-Agent"][0] != "sipua" {
		t.Errorf("original User-Agent = %q, want %q", req.Headers["User-Agent"][0], "sipua")
	}
}

func TestResponse_Expires(t *testing.T) {
	t.Parallel()

	req := newRegisterRequest()
	res := sip.NewResponse(req, sip.ResponseStatusOK, "")

	if got, want := res.StatusText(), "200 OK"; got != want {
		t.Errorf("res.StatusText() = %q, want %q", got, want)
	}
	if res.CSeq != req.CSeq || res.CallID != req.CallID {
		t.Errorf("response correlation = (%v, %q), want (%v, %q)", res.CSeq, res.CallID, req.CSeq, req.CallID)
	}
	if _, ok := res.ExpiresHeader(); ok {
		t.Error("res.ExpiresHeader() ok = true, want false")
	}
	if got := res.MinContactExpires(); got != 0 {
		t.Errorf("res.MinContactExpires() = %v, want 0", got)
	}

	res.Contacts = []sip.Contact{
		{Addr: sip.MustParseNameAddr("sip:a@h1"), Expires: sip.NewExpires(600 * time.Second)},
		{Addr: sip.MustParseNameAddr("sip:a@h2")},
		{Addr: sip.MustParseNameAddr("sip:a@h3"), Expires: sip.NewExpires(0)},
		{Addr: sip.MustParseNameAddr("sip:a@h4"), Expires: sip.NewExpires(300 * time.Second)},
	}
	if got, want := res.MinContactExpires(), 300*time.Second; got != want {
		t.Errorf("res.MinContactExpires() = %v, want %v", got, want)
	}

	res.Expires = sip.NewExpires(1800 * time.Second)
	if got, ok := res.ExpiresHeader(); !ok || got != 1800*time.Second {
		t.Errorf("res.ExpiresHeader() = (%v, %v), want (30m, true)", got, ok)
	}
}

func TestResponse_Challenge(t *testing.T) {
	t.Parallel()

	www := &sip.Challenge{Scheme: "Digest", Realm: "www"}
	proxy := &sip.Challenge{Scheme: "Digest", Realm: "proxy"}

	tests := []struct {
		sts    sip.ResponseStatus
		want   *sip.Challenge
		wantOk bool
	}{
		{sip.ResponseStatusUnauthorized, www, true},
		{sip.ResponseStatusProxyAuthenticationRequired, proxy, true},
		{sip.ResponseStatusForbidden, nil, false},
	}
	for _, tt := range tests {
		res := &sip.Response{Status: tt.sts, WWWAuthenticate: []*sip.Challenge{www}, ProxyAuthenticate: []*sip.Challenge{proxy}}
		got, ok := res.Challenge()
		if got != tt.want || ok != tt.wantOk {
			t.Errorf("res(%d).Challenge() = (%v, %v), want (%v, %v)", tt.sts, got, ok, tt.want, tt.wantOk)
		}
	}
}
