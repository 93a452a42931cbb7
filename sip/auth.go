package sip

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"braces.dev/errtrace"
	"github.com/icholy/digest"
)

const digestScheme = "Digest"

// Challenge is a value of WWW-Authenticate or Proxy-Authenticate header (RFC 3261 Section 25.1).
// Only the Digest scheme is supported.
type Challenge struct {
	Scheme    string
	Realm     string
	Domain    []string
	Nonce     string
	Opaque    string
	Algorithm string
	// QOP is a list of qop-options advertised by the server.
	QOP   []string
	Stale bool
}

// ParseChallenge parses a challenge header value, e.g.
//
//	Digest realm="example.com", nonce="abc", qop="auth,auth-int", algorithm=MD5
func ParseChallenge(s string) (*Challenge, error) {
	params, err := cutDigestScheme(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	c, err := digest.ParseChallenge(digestScheme + " " + params)
	if err != nil {
		return nil, errtrace.Wrap(NewInvalidHeaderError(err))
	}

	chal := &Challenge{
		Scheme:    digestScheme,
		Realm:     c.Realm,
		Domain:    c.Domain,
		Nonce:     c.Nonce,
		Opaque:    c.Opaque,
		Algorithm: c.Algorithm,
		Stale:     c.Stale,
	}
	for _, opt := range c.QOP {
		if opt = strings.TrimSpace(opt); opt != "" {
			chal.QOP = append(chal.QOP, opt)
		}
	}
	return chal, nil
}

// Clone returns a deep copy of the challenge.
func (c *Challenge) Clone() *Challenge {
	if c == nil {
		return nil
	}
	c2 := *c
	c2.Domain = slices.Clone(c.Domain)
	c2.QOP = slices.Clone(c.QOP)
	return &c2
}

func (c *Challenge) String() string {
	if c == nil {
		return ""
	}

	var ps authParams
	ps.quoted("realm", c.Realm)
	ps.quoted("domain", strings.Join(c.Domain, " "))
	ps.quoted("nonce", c.Nonce)
	ps.quoted("opaque", c.Opaque)
	if c.Stale {
		ps.token("stale", "TRUE")
	}
	ps.token("algorithm", c.Algorithm)
	ps.quoted("qop", strings.Join(c.QOP, ","))
	return ps.render(c.Scheme)
}

// Authorization is a value of Authorization or Proxy-Authorization header (RFC 3261 Section 25.1).
type Authorization struct {
	Scheme     string
	Username   string
	Realm      string
	Nonce      string
	URI        string
	Response   string
	Algorithm  string
	Opaque     string
	QOP        string
	CNonce     string
	NonceCount uint32
}

// ParseAuthorization parses a Digest authorization header value.
func ParseAuthorization(s string) (*Authorization, error) {
	params, err := cutDigestScheme(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	c, err := digest.ParseCredentials(digestScheme + " " + params)
	if err != nil {
		return nil, errtrace.Wrap(NewInvalidHeaderError(err))
	}
	if c.Nc < 0 || int64(c.Nc) > int64(^uint32(0)) {
		return nil, errtrace.Wrap(NewInvalidHeaderError("invalid nonce count %d", c.Nc))
	}

	return &Authorization{
		Scheme:     digestScheme,
		Username:   c.Username,
		Realm:      c.Realm,
		Nonce:      c.Nonce,
		URI:        c.URI,
		Response:   c.Response,
		Algorithm:  c.Algorithm,
		Opaque:     c.Opaque,
		QOP:        c.QOP,
		CNonce:     c.Cnonce,
		NonceCount: uint32(c.Nc),
	}, nil
}

// Clone returns a copy of the authorization.
func (a *Authorization) Clone() *Authorization {
	if a == nil {
		return nil
	}
	a2 := *a
	return &a2
}

func (a *Authorization) String() string {
	if a == nil {
		return ""
	}

	var ps authParams
	ps.quoted("username", a.Username)
	ps.quoted("realm", a.Realm)
	ps.quoted("nonce", a.Nonce)
	ps.quoted("uri", a.URI)
	ps.quoted("response", a.Response)
	ps.token("algorithm", a.Algorithm)
	ps.quoted("cnonce", a.CNonce)
	ps.quoted("opaque", a.Opaque)
	ps.token("qop", a.QOP)
	if a.NonceCount > 0 {
		ps.token("nc", fmt.Sprintf("%08x", a.NonceCount))
	}
	return ps.render(a.Scheme)
}

// AuthenticationInfo is a value of Authentication-Info header (RFC 3261 Section 20.6).
// It is filled by the transport layer that parses responses.
type AuthenticationInfo struct {
	NextNonce string
	QOP       string
	RspAuth   string
	CNonce    string
}

func (i *AuthenticationInfo) String() string {
	if i == nil {
		return ""
	}

	var ps authParams
	ps.quoted("nextnonce", i.NextNonce)
	ps.token("qop", i.QOP)
	ps.quoted("rspauth", i.RspAuth)
	ps.quoted("cnonce", i.CNonce)
	return strings.Join(ps, ", ")
}

// cutDigestScheme strips the Digest scheme and the LWS after it.
func cutDigestScheme(s string) (string, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t\r\n")
	if i < 0 || !strings.EqualFold(s[:i], digestScheme) {
		return "", errtrace.Wrap(NewInvalidHeaderError("unsupported auth scheme in %q", s))
	}
	return strings.TrimLeft(s[i:], " \t\r\n"), nil
}

type authParams []string

func (ps *authParams) quoted(k, v string) {
	if v != "" {
		*ps = append(*ps, k+"="+strconv.Quote(v))
	}
}

func (ps *authParams) token(k, v string) {
	if v != "" {
		*ps = append(*ps, k+"="+v)
	}
}

func (ps authParams) render(scheme string) string {
	return scheme + " " + strings.Join(ps, ", ")
}
