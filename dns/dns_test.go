package dns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/miekg/dns"
)

func TestNaptrRecords(t *testing.T) {
	t.Parallel()

	rrs := []dns.RR{
		&dns.NAPTR{Order: 20, Preference: 10, Flags: "s", Service: "SIP+D2U", Replacement: "_sip._udp.example.com."},
		&dns.A{},
		&dns.NAPTR{Order: 10, Preference: 50, Flags: "s", Service: "SIPS+D2T", Replacement: "_sips._tcp.example.com."},
		&dns.NAPTR{Order: 10, Preference: 20, Flags: "s", Service: "SIP+D2T", Replacement: "_sip._tcp.example.com."},
	}
	want := []*NAPTR{
		{Order: 10, Preference: 20, Flags: "s", Service: "SIP+D2T", Replacement: "_sip._tcp.example.com."},
		{Order: 10, Preference: 50, Flags: "s", Service: "SIPS+D2T", Replacement: "_sips._tcp.example.com."},
		{Order: 20, Preference: 10, Flags: "s", Service: "SIP+D2U", Replacement: "_sip._udp.example.com."},
	}
	if diff := cmp.Diff(want, naptrRecords(rrs)); diff != "" {
		t.Errorf("naptrRecords() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_nameserver(t *testing.T) {
	t.Parallel()

	conf := filepath.Join(t.TempDir(), "resolv.conf")
	if err := os.WriteFile(conf, []byte("nameserver 192.0.2.53\nnameserver 192.0.2.54\n"), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v, want nil", err)
	}
	empty := filepath.Join(t.TempDir(), "resolv.conf")
	if err := os.WriteFile(empty, []byte("search example.com\n"), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v, want nil", err)
	}

	tests := []struct {
		name    string
		r       *Resolver
		want    string
		wantErr bool
	}{
		{"explicit with port", &Resolver{NameServer: "192.0.2.1:5353"}, "192.0.2.1:5353", false},
		{"explicit without port", &Resolver{NameServer: "192.0.2.1"}, "192.0.2.1:53", false},
		{"resolv.conf", &Resolver{ResolvConf: conf}, "192.0.2.53:53", false},
		{"no servers", &Resolver{ResolvConf: empty}, "", true},
		{"missing file", &Resolver{ResolvConf: filepath.Join(t.TempDir(), "nope")}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.r.nameserver()
			if (err != nil) != tt.wantErr {
				t.Fatalf("r.nameserver() error = %v, want error %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("r.nameserver() = %q, want %q", got, tt.want)
			}
		})
	}
}
