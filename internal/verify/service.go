package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
	"github.com/dmitrymomot/domainforge/pkg/redirectcache"
)

var (
	// ErrWindowExpired is returned when the verification window has closed;
	// the record must be reconfigured before verification can continue.
	ErrWindowExpired = errors.New("verify: verification window expired")
	// ErrTooManyAttempts is returned when the record's attempt budget is
	// spent.
	ErrTooManyAttempts = errors.New("verify: too many verification attempts")
)

// Checker is the slice of the DNS verifier the orchestrator drives.
// *dnsverify.Verifier satisfies it.
type Checker interface {
	TXTRecordName(domain string) string
	VerifyOwnership(ctx context.Context, domain, expectedToken string) (*dnsverify.Result, error)
}

// Notification describes a verification outcome worth telling the domain
// owner about.
type Notification struct {
	RecordID uuid.UUID
	Domain   string
	Verified bool
	Reason   string
}

// NotifyFunc receives outcome notifications. Implementations own their
// error handling; the orchestrator never waits on delivery.
type NotifyFunc func(ctx context.Context, n Notification)

// Service drives domain records through their verification lifecycle and
// keeps the redirect cache in step with every transition.
type Service struct {
	store     store.Store
	checker   Checker
	cache     *redirectcache.Cache
	broadcast *redirectcache.Broadcaster
	notify    NotifyFunc
	log       *slog.Logger

	maxAttempts int
	window      time.Duration
	routeCNAME  string
	routeIPs    []string
}

// New builds a Service around the store, the DNS checker and the redirect
// cache. All three are required; everything else is optional.
func New(st store.Store, checker Checker, cache *redirectcache.Cache, opts ...Option) *Service {
	s := &Service{
		store:       st,
		checker:     checker,
		cache:       cache,
		log:         slog.New(slog.DiscardHandler),
		maxAttempts: 5,
		window:      7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) dispatchNotify(ctx context.Context, n Notification) {
	if s.notify == nil {
		return
	}
	s.notify(ctx, n)
}

// invalidateDomain drops cached redirects for customDomain, fleet-wide
// when a broadcaster is attached.
func (s *Service) invalidateDomain(ctx context.Context, customDomain string) {
	var removed int
	if s.broadcast != nil {
		removed = s.broadcast.InvalidateDomain(ctx, customDomain)
	} else {
		removed = s.cache.InvalidateDomain(customDomain)
	}
	if removed > 0 {
		s.log.DebugContext(ctx, "cached redirects invalidated",
			slog.String("custom_domain", customDomain),
			slog.Int("removed", removed),
		)
	}
}
