// Package dns locates SIP registrars as described in RFC 3263.
//
// NAPTR records are queried directly with miekg/dns, SRV and address
// records go through [net.Resolver].
package dns

//go:generate errtrace -w .

import (
	"cmp"
	"context"
	"net"
	"slices"
	"time"

	"braces.dev/errtrace"
	"github.com/miekg/dns"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultResolvConf = "/etc/resolv.conf"
)

// Resolver extends [net.Resolver] with NAPTR lookups and registrar location.
type Resolver struct {
	net.Resolver

	// NameServer is the DNS server used for NAPTR queries, e.g. "192.0.2.53:53".
	// Port 53 is assumed when omitted. If empty, the first server from ResolvConf is used.
	NameServer string
	// ResolvConf is the resolver configuration file. Defaults to /etc/resolv.conf.
	ResolvConf string
	// Timeout bounds a single NAPTR exchange. Defaults to 5 seconds.
	Timeout time.Duration
}

// LookupIP returns addresses of the host, IPv4 addresses are returned in 4-byte form.
func (r *Resolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	ips, err := r.Resolver.LookupIP(ctx, network, host)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	for i := range ips {
		if ip4 := ips[i].To4(); ip4 != nil {
			ips[i] = ip4
		}
	}
	return ips, nil
}

type SRV = net.SRV

// LookupSRV returns SRV records sorted by priority and randomized by weight.
// With empty service and proto the name is queried as is.
func (r *Resolver) LookupSRV(ctx context.Context, service, proto, name string) ([]*SRV, error) {
	_, srvs, err := r.Resolver.LookupSRV(ctx, service, proto, name)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return srvs, nil
}

// NAPTR is a naming authority pointer record (RFC 3403).
type NAPTR struct {
	Order      uint16
	Preference uint16
	// Flags "s" means the replacement is an SRV name.
	Flags string
	// Service is one of "SIP+D2U", "SIP+D2T", "SIPS+D2T" for SIP.
	Service     string
	Regexp      string
	Replacement string
}

// LookupNAPTR returns NAPTR records of the host ordered by order and preference.
func (r *Resolver) LookupNAPTR(ctx context.Context, host string) ([]*NAPTR, error) {
	q := new(dns.Msg)
	q.SetQuestion(dns.Fqdn(host), dns.TypeNAPTR)
	q.RecursionDesired = true

	res, err := r.exchange(ctx, q)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if res.Rcode != dns.RcodeSuccess {
		return nil, errtrace.Wrap(&net.DNSError{
			Err:        dns.RcodeToString[res.Rcode],
			Name:       host,
			IsNotFound: res.Rcode == dns.RcodeNameError,
		})
	}
	return naptrRecords(res.Answer), nil
}

func (r *Resolver) exchange(ctx context.Context, q *dns.Msg) (*dns.Msg, error) {
	addr, err := r.nameserver()
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	c := &dns.Client{Timeout: r.timeout()}
	res, _, err := c.ExchangeContext(ctx, q, addr)
	return res, errtrace.Wrap(err)
}

func naptrRecords(rrs []dns.RR) []*NAPTR {
	recs := make([]*NAPTR, 0, len(rrs))
	for _, rr := range rrs {
		v, ok := rr.(*dns.NAPTR)
		if !ok {
			continue
		}
		recs = append(recs, &NAPTR{
			Order:       v.Order,
			Preference:  v.Preference,
			Flags:       v.Flags,
			Service:     v.Service,
			Regexp:      v.Regexp,
			Replacement: v.Replacement,
		})
	}
	slices.SortStableFunc(recs, func(a, b *NAPTR) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.Preference, b.Preference))
	})
	return recs
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return defaultTimeout
}

func (r *Resolver) nameserver() (string, error) {
	if r.NameServer != "" {
		if _, _, err := net.SplitHostPort(r.NameServer); err != nil {
			return net.JoinHostPort(r.NameServer, "53"), nil //nolint:nilerr
		}
		return r.NameServer, nil
	}

	path := r.ResolvConf
	if path == "" {
		path = defaultResolvConf
	}
	conf, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	if len(conf.Servers) == 0 {
		return "", errtrace.Wrap(&net.DNSError{Err: "no DNS servers configured", Name: path})
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}

var defResolver = &Resolver{}

// DefaultResolver returns the package level resolver.
func DefaultResolver() *Resolver { return defResolver }
