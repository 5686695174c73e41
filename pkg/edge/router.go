package edge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/domainforge/pkg/redirectcache"
)

// ErrNotFound is returned by Store implementations when a hostname has no
// domain record.
var ErrNotFound = errors.New("edge: not found")

// HostnameMatch describes the published project behind a custom domain.
type HostnameMatch struct {
	RecordID  string
	Subdomain string
	Published bool
}

// RedirectTarget is a tenant subdomain's configured redirect state. The
// zero value means "no redirect configured" and is itself a cacheable
// answer, not an error.
type RedirectTarget struct {
	CustomDomain   string
	ShouldRedirect bool
}

// Store is the slice of the domain store the edge consults when the
// cache cannot answer.
type Store interface {
	FindByHostname(ctx context.Context, hostname string) (HostnameMatch, error)
	FindRedirectTarget(ctx context.Context, subdomain string) (RedirectTarget, error)
}

// Visit is the analytics payload emitted when a custom domain serves
// tenant content.
type Visit struct {
	RecordID  string
	Hostname  string
	Subdomain string
	Path      string
}

// VisitFunc receives fire-and-forget visit events. Implementations own
// their error handling; the edge never waits on them.
type VisitFunc func(ctx context.Context, v Visit)

var defaultExcludedPrefixes = []string{
	"/api/",
	"/v1/",
	"/assets/",
	"/static/",
	"/auth/",
	"/dashboard",
	"/healthz",
	"/readyz",
	"/metrics",
	"/favicon.ico",
	"/robots.txt",
}

// Router turns (host, path) into a routing Decision using the redirect
// cache on the fast path and the store on misses. Routing is best-effort:
// any store or cache failure degrades to pass-through so the underlying
// site stays available.
type Router struct {
	cache    *redirectcache.Cache
	store    Store
	exact    map[string]struct{}
	wildcard map[string]struct{}
	excluded []string
	visit    VisitFunc
	observe  func(Decision)
	group    singleflight.Group
	log      *slog.Logger
}

// New builds a Router. Platform hosts default to localhost only; deployed
// instances configure their real domain set with WithPlatformHosts.
func New(cache *redirectcache.Cache, store Store, opts ...Option) *Router {
	r := &Router{
		cache:    cache,
		store:    store,
		exact:    map[string]struct{}{"localhost": {}, "127.0.0.1": {}},
		wildcard: make(map[string]struct{}),
		excluded: defaultExcludedPrefixes,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route decides what to do with a request identified by its Host header,
// URL path and raw query. It never fails: errors on the lookup path are
// logged and collapse to ActionNext.
func (r *Router) Route(ctx context.Context, host, path, rawQuery string) Decision {
	d := r.decide(ctx, host, path, rawQuery)
	if r.observe != nil {
		r.observe(d)
	}
	return d
}

func (r *Router) decide(ctx context.Context, host, path, rawQuery string) Decision {
	host = NormalizeHost(host)
	if host == "" {
		return Decision{Action: ActionNext}
	}

	if r.excludedPath(path) {
		return Decision{Action: ActionNext}
	}

	if !r.IsPlatformHost(host) {
		return r.routeCustomDomain(ctx, host, path, rawQuery)
	}

	if slug, ok := SubdomainSlug(path); ok {
		return r.routeSubdomain(ctx, slug, path, rawQuery)
	}

	return Decision{Action: ActionNext}
}

// IsPlatformHost reports whether host belongs to the platform's own
// domain set, exact entries and "*.domain" wildcards included.
func (r *Router) IsPlatformHost(host string) bool {
	host = NormalizeHost(host)
	if _, ok := r.exact[host]; ok {
		return true
	}
	if _, domain, ok := strings.Cut(host, "."); ok {
		if _, ok := r.wildcard[domain]; ok {
			return true
		}
	}
	return false
}

func (r *Router) routeCustomDomain(ctx context.Context, host, path, _ string) Decision {
	match, err := r.lookupHostname(ctx, host)
	switch {
	case errors.Is(err, ErrNotFound):
		return Decision{Action: ActionNotFound, Status: http.StatusNotFound, Domain: host, Source: SourceStore}
	case err != nil:
		r.log.ErrorContext(ctx, "hostname lookup failed",
			slog.String("host", host),
			slog.Any("error", err),
		)
		return Decision{Action: ActionNext}
	case !match.Published:
		return Decision{Action: ActionNotFound, Status: http.StatusNotFound, Domain: host, Source: SourceStore}
	}

	rewrite := "/" + match.Subdomain
	if path != "" && path != "/" {
		rewrite += path
	}

	if r.visit != nil {
		go r.dispatchVisit(context.WithoutCancel(ctx), Visit{
			RecordID:  match.RecordID,
			Hostname:  host,
			Subdomain: match.Subdomain,
			Path:      path,
		})
	}

	return Decision{
		Action:      ActionRewrite,
		RewritePath: rewrite,
		Source:      SourceStore,
		Subdomain:   match.Subdomain,
		Domain:      host,
	}
}

func (r *Router) routeSubdomain(ctx context.Context, slug, path, rawQuery string) Decision {
	source := SourceCache
	entry, err := r.cache.Get(slug)
	if err != nil {
		target, lookupErr := r.lookupRedirect(ctx, slug)
		if lookupErr != nil {
			// Unknown subdomains are routine; only real store failures are
			// worth logging. Neither produces a cache entry.
			if !errors.Is(lookupErr, ErrNotFound) {
				r.log.ErrorContext(ctx, "redirect target lookup failed",
					slog.String("subdomain", slug),
					slog.Any("error", lookupErr),
				)
			}
			return Decision{Action: ActionNext}
		}

		// Repopulate, negative answers included, so the next request for
		// this slug stays off the store.
		if err := r.cache.Set(slug, target.CustomDomain, target.ShouldRedirect); err != nil {
			r.log.WarnContext(ctx, "cache repopulation failed",
				slog.String("subdomain", slug),
				slog.Any("error", err),
			)
		}

		entry = redirectcache.Entry{
			Subdomain:      slug,
			CustomDomain:   target.CustomDomain,
			ShouldRedirect: target.ShouldRedirect,
		}
		source = SourceStore
	}

	if !entry.ShouldRedirect || entry.CustomDomain == "" {
		return Decision{Action: ActionNext}
	}

	url := "https://" + entry.CustomDomain + path
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	return Decision{
		Action:      ActionRedirect,
		RedirectURL: url,
		Status:      http.StatusMovedPermanently,
		Source:      source,
		Subdomain:   slug,
		Domain:      entry.CustomDomain,
	}
}

// lookupHostname collapses concurrent store lookups for the same host
// into one flight.
func (r *Router) lookupHostname(ctx context.Context, host string) (HostnameMatch, error) {
	v, err, _ := r.group.Do("host:"+host, func() (any, error) {
		return r.store.FindByHostname(ctx, host)
	})
	if err != nil {
		return HostnameMatch{}, err
	}
	return v.(HostnameMatch), nil
}

func (r *Router) lookupRedirect(ctx context.Context, slug string) (RedirectTarget, error) {
	v, err, _ := r.group.Do("redirect:"+slug, func() (any, error) {
		return r.store.FindRedirectTarget(ctx, slug)
	})
	if err != nil {
		return RedirectTarget{}, err
	}
	return v.(RedirectTarget), nil
}

// dispatchVisit shields the request path from a misbehaving recorder.
func (r *Router) dispatchVisit(ctx context.Context, v Visit) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("visit recorder panicked", slog.Any("panic", rec))
		}
	}()
	r.visit(ctx, v)
}

func (r *Router) excludedPath(path string) bool {
	for _, prefix := range r.excluded {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Option configures a Router.
type Option func(*Router)

// WithPlatformHosts replaces the platform's own domain set. Entries are
// exact hostnames or "*.domain" wildcards; requests on these hosts are
// tenant-slug traffic, everything else is treated as a custom domain.
// Default: localhost and 127.0.0.1.
func WithPlatformHosts(hosts ...string) Option {
	return func(r *Router) {
		r.exact = make(map[string]struct{}, len(hosts))
		r.wildcard = make(map[string]struct{})
		for _, h := range hosts {
			h = strings.ToLower(strings.TrimSpace(h))
			if h == "" {
				continue
			}
			if rest, ok := strings.CutPrefix(h, "*."); ok {
				r.wildcard[rest] = struct{}{}
			} else {
				r.exact[h] = struct{}{}
			}
		}
	}
}

// WithExcludedPrefixes replaces the path prefixes that bypass routing
// entirely.
// Default: API, asset, auth, dashboard and health/metrics paths.
func WithExcludedPrefixes(prefixes ...string) Option {
	return func(r *Router) {
		r.excluded = prefixes
	}
}

// WithVisitRecorder attaches a fire-and-forget analytics hook invoked on
// every custom-domain rewrite.
func WithVisitRecorder(fn VisitFunc) Option {
	return func(r *Router) {
		r.visit = fn
	}
}

// WithDecisionObserver attaches a hook invoked with every routing
// decision, after it is made and before it is applied. Observers must be
// fast and must not block; they run on the request path.
func WithDecisionObserver(fn func(Decision)) Option {
	return func(r *Router) {
		r.observe = fn
	}
}

// WithLogger attaches a logger for lookup failures.
// Default: discard.
func WithLogger(log *slog.Logger) Option {
	return func(r *Router) {
		r.log = log
	}
}
