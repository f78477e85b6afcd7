// Package netguard validates outbound targets before the console
// talks to an integrated application.
package netguard

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

var (
	ErrPrivateBlocked   = errors.New("target is on a private network")
	ErrRestrictedTarget = errors.New("target address is restricted")
	ErrUnresolvableHost = errors.New("target host does not resolve")
)

// Policy controls which address ranges an upstream may live in.
// Integrated applications commonly sit on private networks, so
// AllowPrivate is usually on. Loopback stays off outside tests.
type Policy struct {
	AllowPrivate  bool
	AllowLoopback bool
}

// CheckUpstreamURL resolves the URL's host and rejects addresses the
// policy forbids. Link-local, multicast and cloud metadata ranges are
// always rejected.
func CheckUpstreamURL(ctx context.Context, raw string, policy Policy) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Host == "" {
		return ErrRestrictedTarget
	}
	return checkHost(ctx, u.Host, policy)
}

func checkHost(ctx context.Context, hostport string, policy Policy) error {
	host := hostport
	if strings.Contains(hostport, ":") {
		if h, _, err := net.SplitHostPort(hostport); err == nil && h != "" {
			host = h
		}
	}
	host = strings.Trim(host, "[]")
	if host == "" {
		return ErrRestrictedTarget
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return checkAddr(addr, policy)
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil || len(ips) == 0 {
		return ErrUnresolvableHost
	}
	// Every resolved address must pass, a single bad A record fails
	// the whole target.
	for _, ip := range ips {
		addr, ok := netip.AddrFromSlice(ip.IP)
		if !ok {
			return ErrRestrictedTarget
		}
		if err := checkAddr(addr.Unmap(), policy); err != nil {
			return err
		}
	}
	return nil
}

var (
	pfxPrivate10  = mustPrefix("10.0.0.0/8")
	pfxPrivate172 = mustPrefix("172.16.0.0/12")
	pfxPrivate192 = mustPrefix("192.168.0.0/16")
	pfxCGNAT      = mustPrefix("100.64.0.0/10")
	pfxLinkLocal4 = mustPrefix("169.254.0.0/16")
	pfxLoopback4  = mustPrefix("127.0.0.0/8")
	pfxMulticast4 = mustPrefix("224.0.0.0/4")
	pfxULA        = mustPrefix("fc00::/7")
	pfxLinkLocal6 = mustPrefix("fe80::/10")
	pfxMulticast6 = mustPrefix("ff00::/8")
	pfxMetadataV6 = mustPrefix("fd00:ec2::254/128")
)

func checkAddr(addr netip.Addr, policy Policy) error {
	if !addr.IsValid() {
		return ErrRestrictedTarget
	}
	addr = addr.Unmap()
	if addr.IsUnspecified() {
		return ErrRestrictedTarget
	}
	if pfxMulticast4.Contains(addr) || pfxMulticast6.Contains(addr) {
		return ErrRestrictedTarget
	}
	if pfxLinkLocal4.Contains(addr) || pfxLinkLocal6.Contains(addr) {
		return ErrRestrictedTarget
	}
	if isMetadataAddr(addr) {
		return ErrRestrictedTarget
	}
	if pfxLoopback4.Contains(addr) || addr.IsLoopback() {
		if policy.AllowLoopback {
			return nil
		}
		return ErrRestrictedTarget
	}
	if isPrivateAddr(addr) {
		if policy.AllowPrivate {
			return nil
		}
		return ErrPrivateBlocked
	}
	return nil
}

func isPrivateAddr(addr netip.Addr) bool {
	if addr.Is4() {
		return pfxPrivate10.Contains(addr) || pfxPrivate172.Contains(addr) || pfxPrivate192.Contains(addr) || pfxCGNAT.Contains(addr)
	}
	return pfxULA.Contains(addr) || addr.IsPrivate()
}

// Cloud metadata endpoints are never a legitimate integration target.
func isMetadataAddr(addr netip.Addr) bool {
	if addr.Is4() {
		return addr == netip.MustParseAddr("169.254.169.254") || addr == netip.MustParseAddr("169.254.170.2")
	}
	return pfxMetadataV6.Contains(addr)
}

func mustPrefix(raw string) netip.Prefix {
	p, err := netip.ParsePrefix(raw)
	if err != nil {
		panic(err)
	}
	return p
}
