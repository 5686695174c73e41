package dnsverify

import (
	"log/slog"
	"time"
)

// Option configures a Verifier.
type Option func(*Verifier)

// WithTimeout sets the per-attempt DNS lookup timeout. Each attempt races
// the lookup against this deadline.
// Default: 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		v.timeout = d
	}
}

// WithMaxRetries sets the total number of lookup attempts made before the
// final attempt's error is surfaced.
// Default: 3.
func WithMaxRetries(n int) Option {
	return func(v *Verifier) {
		v.maxRetries = n
	}
}

// WithRetryDelay sets the base backoff between attempts; the wait after
// attempt n is n times this delay.
// Default: 2 seconds.
func WithRetryDelay(d time.Duration) Option {
	return func(v *Verifier) {
		v.retryDelay = d
	}
}

// WithResolver substitutes the DNS resolver, typically a fake in tests.
// Default: net.DefaultResolver.
func WithResolver(r Resolver) Option {
	return func(v *Verifier) {
		v.resolver = r
	}
}

// WithTXTPrefix overrides the label verification records are published
// under.
// Default: DefaultTXTPrefix.
func WithTXTPrefix(prefix string) Option {
	return func(v *Verifier) {
		v.txtPrefix = prefix
	}
}

// WithRoutingTarget sets the platform edge that CheckRouting expects
// custom domains to point at: a CNAME host, edge A-record addresses, or
// both. Either argument may be empty.
func WithRoutingTarget(cname string, ips ...string) Option {
	return func(v *Verifier) {
		v.routeCNAME = CleanDomain(cname)
		if len(ips) > 0 {
			v.routeIPs = make(map[string]struct{}, len(ips))
			for _, ip := range ips {
				v.routeIPs[ip] = struct{}{}
			}
		}
	}
}

// WithLogger attaches a logger for retry diagnostics.
// Default: discard.
func WithLogger(log *slog.Logger) Option {
	return func(v *Verifier) {
		v.log = log
	}
}
