package sip_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/sipua/sip"
)

func TestParseChallenge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		want    *sip.Challenge
		wantErr error
	}{
		{
			name:  "quoted",
			value: `Digest realm="sip.example.com", nonce="abc", opaque="xyz", algorithm=MD5, qop="auth,auth-int"`,
			want: &sip.Challenge{
				Scheme:    "Digest",
				Realm:     "sip.example.com",
				Nonce:     "abc",
				Opaque:    "xyz",
				Algorithm: "MD5",
				QOP:       []string{"auth", "auth-int"},
			},
		},
		{
			name:  "unquoted",
			value: `Digest realm=example.com,nonce=a1`,
			want: &sip.Challenge{
				Scheme: "Digest",
				Realm:  "example.com",
				Nonce:  "a1",
			},
		},
		{
			name:  "tab after scheme",
			value: "Digest\trealm=\"example.com\", nonce=\"abc\"",
			want: &sip.Challenge{
				Scheme: "Digest",
				Realm:  "example.com",
				Nonce:  "abc",
			},
		},
		{
			name:  "lowercase scheme",
			value: `digest realm="example.com", nonce="abc"`,
			want: &sip.Challenge{
				Scheme: "Digest",
				Realm:  "example.com",
				Nonce:  "abc",
			},
		},
		{
			name:    "missing scheme",
			value:   `realm="abc"`,
			wantErr: sip.ErrInvalidHeader,
		},
		{
			name:    "basic scheme",
			value:   `Basic realm="abc"`,
			wantErr: sip.ErrInvalidHeader,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := sip.ParseChallenge(tt.value)
			if diff := cmp.Diff(tt.wantErr, err, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("sip.ParseChallenge(%q) error mismatch (-want +got):\n%s", tt.value, diff)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("sip.ParseChallenge(%q) mismatch (-want +got):\n%s", tt.value, diff)
			}
		})
	}
}

func TestChallenge_String(t *testing.T) {
	t.Parallel()

	chal := &sip.Challenge{
		Scheme:    "Digest",
		Realm:     "example.com",
		Nonce:     "abc",
		Algorithm: "MD5",
		QOP:       []string{"auth"},
	}
	want := `Digest realm="example.com", nonce="abc", algorithm=MD5, qop="auth"`
	if got := chal.String(); got != want {
		t.Errorf("chal.String() = %q, want %q", got, want)
	}

	parsed, err := sip.ParseChallenge(chal.String())
	if err != nil {
		t.Fatalf("sip.ParseChallenge(chal.String()) error = %v, want nil", err)
	}
	if diff := cmp.Diff(chal, parsed); diff != "" {
		t.Errorf("parsed challenge mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthorization_String(t *testing.T) {
	t.Parallel()

	auth := &sip.Authorization{
		Scheme:     "Digest",
		Username:   "alice",
		Realm:      "example.com",
		Nonce:      "abc",
		URI:        "sip:example.com",
		Response:   "0123",
		Algorithm:  "MD5",
		QOP:        "auth",
		CNonce:     "c1",
		NonceCount: 1,
	}
	want := `Digest username="alice", realm="example.com", nonce="abc", uri="sip:example.com", ` +
		`response="0123", algorithm=MD5, cnonce="c1", qop=auth, nc=00000001`
	if got := auth.String(); got != want {
		t.Errorf("auth.String() = %q, want %q", got, want)
	}

	parsed, err := sip.ParseAuthorization(auth.String())
	if err != nil {
		t.Fatalf("sip.ParseAuthorization(auth.String()) error = %v, want nil", err)
	}
	if diff := cmp.Diff(auth, parsed); diff != "" {
		t.Errorf("parsed authorization mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthenticationInfo_String(t *testing.T) {
	t.Parallel()

	info := &sip.AuthenticationInfo{NextNonce: "n2", QOP: "auth", RspAuth: "ff"}
	if got, want := info.String(), `nextnonce="n2", qop=auth, rspauth="ff"`; got != want {
		t.Errorf("info.String() = %q, want %q", got, want)
	}
}
