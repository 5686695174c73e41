package verify

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/domainforge/pkg/redirectcache"
)

// Option configures a Service.
type Option func(*Service)

// WithMaxAttempts caps failed verification attempts before the record
// must be reconfigured. Values below 1 are ignored.
// Default: 5.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.maxAttempts = n
		}
	}
}

// WithWindow sets how long a configured domain stays verifiable before
// its record expires. Non-positive values are ignored.
// Default: 7 days.
func WithWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithRoutingTarget sets the platform edge addresses surfaced in DNS
// setup instructions: a CNAME host for subdomains and A-record addresses
// for apex domains.
// Default: none; instructions list only the TXT record.
func WithRoutingTarget(cname string, ips ...string) Option {
	return func(s *Service) {
		s.routeCNAME = cname
		s.routeIPs = ips
	}
}

// WithBroadcaster fans cache invalidations out to the rest of the edge
// fleet.
// Default: local cache only.
func WithBroadcaster(b *redirectcache.Broadcaster) Option {
	return func(s *Service) {
		s.broadcast = b
	}
}

// WithNotifier attaches the outcome notification hook.
// Default: no notifications.
func WithNotifier(fn NotifyFunc) Option {
	return func(s *Service) {
		s.notify = fn
	}
}

// WithLogger attaches a logger for lifecycle events.
// Default: discard.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}
