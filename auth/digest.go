package auth

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipua/sip"
)

// Digest algorithms (RFC 7616 Section 3.5).
const (
	AlgorithmMD5        = "MD5"
	AlgorithmMD5Sess    = "MD5-sess"
	AlgorithmSHA256     = "SHA-256"
	AlgorithmSHA256Sess = "SHA-256-sess"
)

// QOPAuth is the "auth" quality of protection.
const QOPAuth = "auth"

// DigestParams holds inputs of the digest response calculation.
type DigestParams struct {
	// Algorithm is the digest algorithm, empty value means MD5.
	Algorithm string
	Username  string
	Realm     string
	Password  string
	Method    sip.RequestMethod
	URI       string
	Nonce     string
	// QOP is the selected quality of protection, empty for the unqualified
	// RFC 2069 compatible digest.
	QOP        string
	CNonce     string
	NonceCount uint32
}

// Digest calculates the digest response as described in RFC 2617 Section 3.2.2.1
// and RFC 7616 Section 3.4.1.
func Digest(p DigestParams) (string, error) {
	newHash, sess, err := algorithmHash(p.Algorithm)
	if err != nil {
		return "", errtrace.Wrap(err)
	}

	h := func(parts ...string) string {
		hh := newHash()
		hh.Write([]byte(strings.Join(parts, ":")))
		return hex.EncodeToString(hh.Sum(nil))
	}

	ha1 := h(p.Username, p.Realm, p.Password)
	if sess {
		ha1 = h(ha1, p.Nonce, p.CNonce)
	}
	ha2 := h(string(p.Method), p.URI)

	if p.QOP == "" {
		return h(ha1, p.Nonce, ha2), nil
	}
	return h(ha1, p.Nonce, formatNonceCount(p.NonceCount), p.CNonce, p.QOP, ha2), nil
}

func algorithmHash(alg string) (func() hash.Hash, bool, error) {
	switch {
	case alg == "" || strings.EqualFold(alg, AlgorithmMD5):
		return md5.New, false, nil
	case strings.EqualFold(alg, AlgorithmMD5Sess):
		return md5.New, true, nil
	case strings.EqualFold(alg, AlgorithmSHA256):
		return sha256.New, false, nil
	case strings.EqualFold(alg, AlgorithmSHA256Sess):
		return sha256.New, true, nil
	default:
		return nil, false, errtrace.Wrap(NewUnsupportedAlgorithmError(alg))
	}
}

func formatNonceCount(nc uint32) string {
	s := strconv.FormatUint(uint64(nc), 16)
	return strings.Repeat("0", 8-len(s)) + s
}
