// Package auth implements the client side of SIP digest authentication.
//
// [Credentials] answers 401/407 challenges by attaching Authorization or
// Proxy-Authorization headers to the pending request and keeps the state
// needed for pre-emptive authentication of subsequent requests.
package auth

import (
	"sync"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipua/internal/util"
	"github.com/ghettovoice/sipua/sip"
)

const digestScheme = "Digest"

// Credentials holds the user's secret and the authentication continuation state.
// It is safe for concurrent use.
type Credentials struct {
	mu       sync.Mutex
	username string
	password string
	realm    string
	// continuation state
	nextNonce string
	nc        uint32
	qop       string
	algorithm string
	opaque    string
}

// NewCredentials creates credentials for the user.
// The realm is optional, it is overwritten by the realm of every answered challenge.
func NewCredentials(username, realm, password string) *Credentials {
	return &Credentials{
		username: username,
		realm:    realm,
		password: password,
	}
}

// Username returns the user name.
func (c *Credentials) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// Realm returns the current realm.
func (c *Credentials) Realm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.realm
}

// QOP returns the quality of protection selected by the last answered challenge.
// Empty value means unqualified digest.
func (c *Credentials) QOP() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qop
}

// NextNonce returns the nonce that will be used for pre-emptive authentication.
func (c *Credentials) NextNonce() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextNonce
}

// Authorize answers the challenge carried by res and sets the authorization
// header on req: Proxy-Authorization for 407 and Authorization for 401.
//
// The realm of the challenge replaces the stored realm, qop is set to "auth"
// if the challenge advertises any qop options and cleared otherwise.
// The digest is calculated over the request method and request URI.
// The request CSeq is left untouched, the caller decides whether to resend.
//
// Errors: [ErrNoChallenge] if res has no challenge for its status,
// [ErrCannotAuthenticate] if the challenge has no realm or there is no username,
// [ErrUnsupportedAlgorithm] for unknown algorithms.
func (c *Credentials) Authorize(req *sip.Request, res *sip.Response) error {
	if req == nil || res == nil {
		return errtrace.Wrap(sip.NewInvalidArgumentError("nil request or response"))
	}

	chal, ok := res.Challenge()
	if !ok {
		return errtrace.Wrap(ErrNoChallenge)
	}
	if chal.Realm == "" {
		return errtrace.Wrap(NewCannotAuthenticateError("challenge without realm"))
	}
	if _, _, err := algorithmHash(chal.Algorithm); err != nil {
		return errtrace.Wrap(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.username == "" {
		return errtrace.Wrap(NewCannotAuthenticateError("no username"))
	}

	c.realm = chal.Realm
	if len(chal.QOP) > 0 {
		c.qop = QOPAuth
	} else {
		c.qop = ""
	}
	c.algorithm = chal.Algorithm
	c.opaque = chal.Opaque

	auth, err := c.authorization(req, chal.Nonce, 1)
	if err != nil {
		return errtrace.Wrap(err)
	}

	if res.Status == sip.ResponseStatusProxyAuthenticationRequired {
		req.ProxyAuthorization = auth
	} else {
		req.Authorization = auth
	}
	return nil
}

// Preauthorize attaches an Authorization header calculated with the nonce
// received in Authentication-Info of a previous response.
// It returns false if no nonce is known.
func (c *Credentials) Preauthorize(req *sip.Request) (bool, error) {
	if req == nil {
		return false, errtrace.Wrap(sip.NewInvalidArgumentError("nil request"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nextNonce == "" || c.username == "" {
		return false, nil
	}

	c.nc++
	auth, err := c.authorization(req, c.nextNonce, c.nc)
	if err != nil {
		return false, errtrace.Wrap(err)
	}
	req.Authorization = auth
	return true, nil
}

// UpdateNonce stores the next nonce from Authentication-Info header of res.
// It returns true if the nonce was updated.
func (c *Credentials) UpdateNonce(res *sip.Response) bool {
	if res == nil || res.AuthenticationInfo == nil || res.AuthenticationInfo.NextNonce == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nextNonce != res.AuthenticationInfo.NextNonce {
		c.nextNonce = res.AuthenticationInfo.NextNonce
		c.nc = 0
	}
	return true
}

func (c *Credentials) authorization(req *sip.Request, nonce string, nc uint32) (*sip.Authorization, error) {
	auth := &sip.Authorization{
		Scheme:    digestScheme,
		Username:  c.username,
		Realm:     c.realm,
		Nonce:     nonce,
		URI:       req.RequestURI,
		Algorithm: c.algorithm,
		Opaque:    c.opaque,
		QOP:       c.qop,
	}
	if c.qop != "" {
		auth.CNonce = util.RandHex(16)
		auth.NonceCount = nc
	}

	rsp, err := Digest(DigestParams{
		Algorithm:  auth.Algorithm,
		Username:   auth.Username,
		Realm:      auth.Realm,
		Password:   c.password,
		Method:     req.Method,
		URI:        auth.URI,
		Nonce:      auth.Nonce,
		QOP:        auth.QOP,
		CNonce:     auth.CNonce,
		NonceCount: auth.NonceCount,
	})
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	auth.Response = rsp
	return auth, nil
}
