package sip

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"braces.dev/errtrace"
)

// CSeq is a value of CSeq header.
type CSeq struct {
	SeqNo  uint32
	Method RequestMethod
}

func (c CSeq) String() string { return fmt.Sprintf("%d %s", c.SeqNo, c.Method) }

// Expires is a value of Expires header or expires parameter in seconds.
type Expires uint32

// NewExpires converts d to [Expires] truncating it to whole seconds.
// Negative durations are converted to zero.
func NewExpires(d time.Duration) *Expires {
	e := Expires(max(d, 0) / time.Second)
	return &e
}

// Duration returns the expiration as [time.Duration].
func (e Expires) Duration() time.Duration { return time.Duration(e) * time.Second }

// Contact is a single contact binding from Contact header.
type Contact struct {
	Addr    NameAddr
	Expires *Expires
}

// Headers holds headers that the model does not map to dedicated fields.
// Keys are canonic header names.
type Headers map[string][]string

// Request is a SIP request.
// Only the parts the user agent reads and writes are modeled,
// the wire format is the concern of the transport layer.
type Request struct {
	Method     RequestMethod
	RequestURI string
	From       NameAddr
	FromTag    string
	To         NameAddr
	ToTag      string
	Contact    NameAddr
	CallID     string
	CSeq       CSeq
	Expires    *Expires
	Event      string
	Accept     []string

	Authorization      *Authorization
	ProxyAuthorization *Authorization

	Headers     Headers
	ContentType string
	Body        []byte
}

// Validate checks that mandatory fields of the request are set.
func (r *Request) Validate() error {
	if r == nil {
		return errtrace.Wrap(NewInvalidArgumentError("nil request"))
	}
	if !r.Method.IsValid() {
		return errtrace.Wrap(NewInvalidArgumentError("invalid method %q", r.Method))
	}
	if r.RequestURI == "" {
		return errtrace.Wrap(NewInvalidArgumentError("empty request URI"))
	}
	if r.CallID == "" {
		return errtrace.Wrap(NewInvalidArgumentError("empty Call-ID"))
	}
	if !r.CSeq.Method.Equal(r.Method) {
		return errtrace.Wrap(NewInvalidArgumentError("CSeq method %q mismatches request method %q", r.CSeq.Method, r.Method))
	}
	return nil
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	r2 := *r
	if r.Expires != nil {
		e := *r.Expires
		r2.Expires = &e
	}
	r2.Accept = slices.Clone(r.Accept)
	r2.Authorization = r.Authorization.Clone()
	r2.ProxyAuthorization = r.ProxyAuthorization.Clone()
	r2.Headers = cloneHeaders(r.Headers)
	r2.Body = slices.Clone(r.Body)
	return &r2
}

// IncSeqNo increments the CSeq sequence number of the request.
func (r *Request) IncSeqNo() { r.CSeq.SeqNo++ }

func (r *Request) String() string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s (CSeq: %s, Call-ID: %s)", r.Method, r.RequestURI, r.CSeq, r.CallID)
}

// LogValue implements [slog.LogValuer].
func (r *Request) LogValue() slog.Value {
	if r == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.String("method", string(r.Method)),
		slog.String("uri", r.RequestURI),
		slog.String("call_id", r.CallID),
		slog.String("cseq", r.CSeq.String()),
	)
}

// Response is a SIP response.
type Response struct {
	Status   ResponseStatus
	Reason   ResponseReason
	CallID   string
	CSeq     CSeq
	Expires  *Expires
	Contacts []Contact

	WWWAuthenticate    []*Challenge
	ProxyAuthenticate  []*Challenge
	AuthenticationInfo *AuthenticationInfo

	Headers     Headers
	ContentType string
	Body        []byte
}

// NewResponse creates a response on the request with the given status.
// If reason is empty, the default reason of the status is used.
func NewResponse(req *Request, sts ResponseStatus, reason ResponseReason) *Response {
	if reason == "" {
		reason = sts.Reason()
	}
	res := &Response{
		Status: sts,
		Reason: reason,
	}
	if req != nil {
		res.CallID = req.CallID
		res.CSeq = req.CSeq
	}
	return res
}

// StatusText returns the status line text in "<code> <reason>" form.
func (r *Response) StatusText() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%d %s", uint(r.Status), r.Reason)
}

// ExpiresHeader returns the value of Expires header.
func (r *Response) ExpiresHeader() (time.Duration, bool) {
	if r == nil || r.Expires == nil {
		return 0, false
	}
	return r.Expires.Duration(), true
}

// MinContactExpires returns the smallest positive expires parameter of contact bindings.
// It returns zero if no binding has a positive expiration.
func (r *Response) MinContactExpires() time.Duration {
	if r == nil {
		return 0
	}
	var exp time.Duration
	for _, c := range r.Contacts {
		if c.Expires == nil {
			continue
		}
		if d := c.Expires.Duration(); d > 0 && (exp == 0 || d < exp) {
			exp = d
		}
	}
	return exp
}

// Challenge returns the first challenge matching the response status:
// Proxy-Authenticate for 407 and WWW-Authenticate for 401.
func (r *Response) Challenge() (*Challenge, bool) {
	if r == nil {
		return nil, false
	}
	var chals []*Challenge
	switch r.Status {
	case ResponseStatusUnauthorized:
		chals = r.WWWAuthenticate
	case ResponseStatusProxyAuthenticationRequired:
		chals = r.ProxyAuthenticate
	}
	if len(chals) == 0 || chals[0] == nil {
		return nil, false
	}
	return chals[0], true
}

func (r *Response) String() string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s (CSeq: %s, Call-ID: %s)", r.StatusText(), r.CSeq, r.CallID)
}

// LogValue implements [slog.LogValuer].
func (r *Response) LogValue() slog.Value {
	if r == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Int("status", int(r.Status)),
		slog.String("reason", string(r.Reason)),
		slog.String("call_id", r.CallID),
		slog.String("cseq", r.CSeq.String()),
	)
}

func cloneHeaders(hdrs Headers) Headers {
	if hdrs == nil {
		return nil
	}
	out := make(Headers, len(hdrs))
	for k, vs := range maps.All(hdrs) {
		out[k] = slices.Clone(vs)
	}
	return out
}
