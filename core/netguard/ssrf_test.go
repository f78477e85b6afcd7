package netguard

import (
	"context"
	"errors"
	"testing"
)

func TestCheckUpstreamURL(t *testing.T) {
	ctx := context.Background()
	private := Policy{AllowPrivate: true}
	strict := Policy{}

	cases := []struct {
		name   string
		url    string
		policy Policy
		want   error
	}{
		{"public address", "https://203.0.113.10:8443/api", strict, nil},
		{"private allowed", "http://10.1.2.3:8080", private, nil},
		{"private blocked", "http://10.1.2.3:8080", strict, ErrPrivateBlocked},
		{"cgnat blocked", "http://100.64.0.1", strict, ErrPrivateBlocked},
		{"loopback blocked", "http://127.0.0.1:9000", private, ErrRestrictedTarget},
		{"loopback allowed", "http://127.0.0.1:9000", Policy{AllowLoopback: true}, nil},
		{"metadata always blocked", "http://169.254.169.254/latest/meta-data/", Policy{AllowPrivate: true, AllowLoopback: true}, ErrRestrictedTarget},
		{"link local blocked", "http://169.254.1.1", private, ErrRestrictedTarget},
		{"unspecified blocked", "http://0.0.0.0:80", private, ErrRestrictedTarget},
		{"multicast blocked", "http://224.0.0.1", private, ErrRestrictedTarget},
		{"ipv6 loopback blocked", "http://[::1]:9000", private, ErrRestrictedTarget},
		{"ipv6 ula allowed when private", "http://[fd12::1]:9000", private, nil},
		{"empty host", "https://", private, ErrRestrictedTarget},
	}
	for _, tc := range cases {
		err := CheckUpstreamURL(ctx, tc.url, tc.policy)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestCheckUpstreamURLUnresolvableHost(t *testing.T) {
	err := CheckUpstreamURL(context.Background(), "http://no-such-host.invalid", Policy{AllowPrivate: true})
	if !errors.Is(err, ErrUnresolvableHost) {
		t.Fatalf("err = %v, want ErrUnresolvableHost", err)
	}
}
