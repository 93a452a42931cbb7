package dns

import (
	"context"
	"errors"
	"net"
	"slices"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipua/internal/errorutil"
)

// ErrNoTargets is returned when a registrar host resolves to no usable targets.
const ErrNoTargets errorutil.Error = "no registrar targets"

// Transports supported by [Resolver.LocateRegistrar].
const (
	TransportUDP = "udp"
	TransportTCP = "tcp"
	TransportTLS = "tls"
)

// Default ports used when no SRV records are found.
const (
	DefaultPort    uint16 = 5060
	DefaultTLSPort uint16 = 5061
)

var naptrServices = map[string]string{
	"SIP+D2U":  TransportUDP,
	"SIP+D2T":  TransportTCP,
	"SIPS+D2T": TransportTLS,
}

var transportOrder = []string{TransportUDP, TransportTCP, TransportTLS}

// Target is a resolved registrar address.
type Target struct {
	Proto string
	Host  string
	Port  uint16
}

// Addr returns the host:port form of the target.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.FormatUint(uint64(t.Port), 10))
}

func (t Target) String() string { return t.Proto + " " + t.Addr() }

type lookuper interface {
	LookupNAPTR(ctx context.Context, host string) ([]*NAPTR, error)
	LookupSRV(ctx context.Context, service, proto, host string) ([]*SRV, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// LocateRegistrar resolves the registrar host to an ordered list of targets following RFC 3263.
// Empty transport lets NAPTR records choose it.
// Host may carry an explicit port, in that case DNS service discovery is skipped.
func (r *Resolver) LocateRegistrar(ctx context.Context, host, transport string) ([]Target, error) {
	return errtrace.Wrap2(locate(ctx, r, host, transport))
}

// LocateRegistrar resolves the registrar host with the default resolver.
func LocateRegistrar(ctx context.Context, host, transport string) ([]Target, error) {
	return errtrace.Wrap2(defResolver.LocateRegistrar(ctx, host, transport))
}

func locate(ctx context.Context, r lookuper, host, transport string) ([]Target, error) {
	transport = strings.ToLower(transport)
	if transport != "" && !slices.Contains(transportOrder, transport) {
		return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError("unsupported transport %q", transport))
	}
	if host == "" {
		return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError("empty host"))
	}

	name, port, hasPort := splitHostPort(host)
	if hasPort || net.ParseIP(name) != nil {
		proto := transport
		if proto == "" {
			proto = TransportUDP
		}
		if !hasPort {
			port = defaultPort(proto)
		}
		if net.ParseIP(name) != nil {
			return []Target{{Proto: proto, Host: name, Port: port}}, nil
		}
		return errtrace.Wrap2(lookupHost(ctx, r, name, proto, port))
	}

	if transport == "" {
		tgts, err := lookupNAPTR(ctx, r, name)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		if len(tgts) > 0 {
			return tgts, nil
		}
	}

	protos := transportOrder
	if transport != "" {
		protos = []string{transport}
	}
	var tgts []Target
	for _, proto := range protos {
		srvs, err := r.LookupSRV(ctx, "", "", srvName(proto, name))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errtrace.Wrap(ctxErr)
			}
			continue
		}
		tgts = appendSRV(tgts, proto, srvs)
	}
	if len(tgts) > 0 {
		return tgts, nil
	}

	proto := transport
	if proto == "" {
		proto = TransportUDP
	}
	return errtrace.Wrap2(lookupHost(ctx, r, name, proto, defaultPort(proto)))
}

func lookupNAPTR(ctx context.Context, r lookuper, name string) ([]Target, error) {
	recs, err := r.LookupNAPTR(ctx, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errtrace.Wrap(ctxErr)
		}
		return nil, nil
	}

	var tgts []Target
	for _, rec := range recs {
		proto, ok := naptrServices[strings.ToUpper(rec.Service)]
		if !ok || !strings.EqualFold(rec.Flags, "s") || rec.Replacement == "" {
			continue
		}
		srvs, err := r.LookupSRV(ctx, "", "", rec.Replacement)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errtrace.Wrap(ctxErr)
			}
			continue
		}
		tgts = appendSRV(tgts, proto, srvs)
	}
	return tgts, nil
}

func lookupHost(ctx context.Context, r lookuper, name, proto string, port uint16) ([]Target, error) {
	ips, err := r.LookupIP(ctx, "ip", name)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrNoTargets, name))
		}
		return nil, errtrace.Wrap(err)
	}
	if len(ips) == 0 {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrNoTargets, name))
	}
	tgts := make([]Target, 0, len(ips))
	for _, ip := range ips {
		tgts = append(tgts, Target{Proto: proto, Host: ip.String(), Port: port})
	}
	return tgts, nil
}

func appendSRV(tgts []Target, proto string, srvs []*SRV) []Target {
	for _, srv := range srvs {
		// "." target means the service is decidedly not available.
		host := strings.TrimSuffix(srv.Target, ".")
		if host == "" {
			continue
		}
		tgts = append(tgts, Target{Proto: proto, Host: host, Port: srv.Port})
	}
	return tgts
}

func srvName(proto, host string) string {
	switch proto {
	case TransportTLS:
		return "_sips._tcp." + host
	default:
		return "_sip._" + proto + "." + host
	}
}

func defaultPort(proto string) uint16 {
	if proto == TransportTLS {
		return DefaultTLSPort
	}
	return DefaultPort
}

func splitHostPort(host string) (string, uint16, bool) {
	h, p, err := net.SplitHostPort(host)
	if err != nil {
		return strings.Trim(host, "[]"), 0, false
	}
	port, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return strings.Trim(host, "[]"), 0, false
	}
	return h, uint16(port), true
}
