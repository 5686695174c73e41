package hostrouter

import (
	"net/http"
	"strings"
)

// Routes maps host patterns to handlers. Patterns are either exact
// ("api.domainforge.app") or wildcard ("*.domainforge.app").
type Routes map[string]http.Handler

// Router dispatches on the request's Host header. Unmatched hosts go to
// the fallback, which is where customer domains land.
type Router struct {
	exact    map[string]http.Handler
	wildcard map[string]http.Handler // keyed by base domain, "*." stripped
	fallback http.Handler
}

// New builds a Router. Patterns are normalized once here so ServeHTTP
// only does map lookups.
func New(routes Routes, fallback http.Handler) *Router {
	r := &Router{
		exact:    make(map[string]http.Handler),
		wildcard: make(map[string]http.Handler),
		fallback: fallback,
	}
	for pattern, h := range routes {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if base, ok := strings.CutPrefix(pattern, "*."); ok {
			r.wildcard[base] = h
		} else {
			r.exact[pattern] = h
		}
	}
	return r
}

// ServeHTTP picks the handler for the request host: exact match first,
// then the wildcard for the host's base domain, then the fallback.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	host := normalizeHost(req.Host)

	if h, ok := r.exact[host]; ok {
		h.ServeHTTP(w, req)
		return
	}
	if _, base, ok := strings.Cut(host, "."); ok {
		if h, ok := r.wildcard[base]; ok {
			h.ServeHTTP(w, req)
			return
		}
	}
	r.fallback.ServeHTTP(w, req)
}

// normalizeHost lowercases the host and strips a trailing port without
// breaking bracketed IPv6 literals.
func normalizeHost(host string) string {
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		if !strings.Contains(host[idx:], "]") {
			host = host[:idx]
		}
	}
	return strings.ToLower(host)
}
