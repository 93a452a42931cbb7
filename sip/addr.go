package sip

import (
	"strings"

	"braces.dev/errtrace"
)

// NameAddr is an address in the name-addr form: an optional display name and a URI.
// Header parameters that follow the address are not part of NameAddr.
type NameAddr struct {
	DisplayName string
	URI         string
}

// ParseNameAddr parses s as a name-addr or a bare addr-spec.
// Only sip and sips URIs are accepted.
//
// Examples:
//
//	"Alice" <sip:alice@example.com>
//	Alice <sip:alice@example.com>
//	sip:alice@example.com
func ParseNameAddr(s string) (NameAddr, error) {
	s = strings.TrimSpace(s)
	var addr NameAddr
	if i := strings.IndexByte(s, '<'); i >= 0 {
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			return NameAddr{}, errtrace.Wrap(NewInvalidArgumentError("unclosed angle bracket in %q", s))
		}
		addr.DisplayName = strings.Trim(strings.TrimSpace(s[:i]), `"`)
		addr.URI = strings.TrimSpace(s[i+1 : i+j])
	} else {
		addr.URI = s
	}

	if scheme, _, ok := strings.Cut(addr.URI, ":"); !ok ||
		(!strings.EqualFold(scheme, "sip") && !strings.EqualFold(scheme, "sips")) {
		return NameAddr{}, errtrace.Wrap(NewInvalidArgumentError("unsupported URI %q", addr.URI))
	}
	if addr.Host() == "" {
		return NameAddr{}, errtrace.Wrap(NewInvalidArgumentError("missing host in %q", addr.URI))
	}
	return addr, nil
}

// MustParseNameAddr is like [ParseNameAddr] but panics on error.
func MustParseNameAddr(s string) NameAddr {
	addr, err := ParseNameAddr(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// IsZero reports whether the address is empty.
func (a NameAddr) IsZero() bool { return a.URI == "" }

// Scheme returns the lower-cased URI scheme.
func (a NameAddr) Scheme() string {
	scheme, _, _ := strings.Cut(a.URI, ":")
	return strings.ToLower(scheme)
}

// User returns the user part of the URI, if any.
func (a NameAddr) User() string {
	user, _, ok := strings.Cut(a.hierPart(), "@")
	if !ok {
		return ""
	}
	user, _, _ = strings.Cut(user, ":")
	return user
}

// Host returns the host[:port] part of the URI.
func (a NameAddr) Host() string {
	hp := a.hierPart()
	if i := strings.LastIndexByte(hp, '@'); i >= 0 {
		hp = hp[i+1:]
	}
	return hp
}

func (a NameAddr) hierPart() string {
	_, rest, ok := strings.Cut(a.URI, ":")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, ";?"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// RegistrarURI returns the URI of the registrar responsible for the address,
// i.e. the address URI without the user part (RFC 3261 Section 10.2).
func (a NameAddr) RegistrarURI() string {
	if a.IsZero() {
		return ""
	}
	return a.Scheme() + ":" + a.Host()
}

// String renders the address in the name-addr form.
func (a NameAddr) String() string {
	if a.IsZero() {
		return ""
	}
	if a.DisplayName == "" {
		return "<" + a.URI + ">"
	}
	return `"` + a.DisplayName + `" <` + a.URI + ">"
}
