package auth_test

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/sipua/auth"
)

func md5hex(s string) string {
	h := md5.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

func TestDigest(t *testing.T) {
	t.Parallel()

	ha1 := md5hex("alice:example.com:secret")
	ha2 := md5hex("REGISTER:sip:example.com")

	tests := []struct {
		name    string
		params  auth.DigestParams
		want    string
		wantErr error
	}{
		{
			name: "rfc 2617 example",
			params: auth.DigestParams{
				Username:   "Mufasa",
				Realm:      "testrealm@host.com",
				Password:   "Circle Of Life",
				Method:     "GET",
				URI:        "/dir/index.html",
				Nonce:      "dcd98b7102dd2f0e8b11d0f600bfb0c093",
				QOP:        "auth",
				CNonce:     "0a4f113b",
				NonceCount: 1,
			},
			want: "6629fae49393a05397450978507c4ef1",
		},
		{
			name: "unqualified",
			params: auth.DigestParams{
				Username: "alice",
				Realm:    "example.com",
				Password: "secret",
				Method:   "REGISTER",
				URI:      "sip:example.com",
				Nonce:    "n1",
			},
			want: md5hex(ha1 + ":n1:" + ha2),
		},
		{
			name: "qualified",
			params: auth.DigestParams{
				Algorithm:  auth.AlgorithmMD5,
				Username:   "alice",
				Realm:      "example.com",
				Password:   "secret",
				Method:     "REGISTER",
				URI:        "sip:example.com",
				Nonce:      "n1",
				QOP:        "auth",
				CNonce:     "c1",
				NonceCount: 0x1f,
			},
			want: md5hex(ha1 + ":n1:0000001f:c1:auth:" + ha2),
		},
		{
			name: "md5 session",
			params: auth.DigestParams{
				Algorithm: "md5-sess",
				Username:  "alice",
				Realm:     "example.com",
				Password:  "secret",
				Method:    "REGISTER",
				URI:       "sip:example.com",
				Nonce:     "n1",
				CNonce:    "c1",
			},
			want: md5hex(md5hex(ha1+":n1:c1") + ":n1:" + ha2),
		},
		{
			name: "unknown algorithm",
			params: auth.DigestParams{
				Algorithm: "AKAv1-MD5",
				Username:  "alice",
			},
			wantErr: auth.ErrUnsupportedAlgorithm,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := auth.Digest(tt.params)
			if diff := cmp.Diff(tt.wantErr, err, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("auth.Digest() error mismatch (-want +got):\n%s", diff)
			}
			if got != tt.want {
				t.Errorf("auth.Digest() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDigest_SHA256(t *testing.T) {
	t.Parallel()

	got, err := auth.Digest(auth.DigestParams{
		Algorithm: auth.AlgorithmSHA256,
		Username:  "alice",
		Realm:     "example.com",
		Password:  "secret",
		Method:    "REGISTER",
		URI:       "sip:example.com",
		Nonce:     "n1",
	})
	if err != nil {
		t.Fatalf("auth.Digest() error = %v, want nil", err)
	}
	if len(got) != 64 {
		t.Errorf("len(auth.Digest()) = %d, want 64", len(got))
	}
}
