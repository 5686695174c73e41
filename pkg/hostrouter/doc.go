// Package hostrouter splits one listener's traffic by the Host header.
//
// The platform serves two very different audiences on the same port:
// the management API on its own hostname, and visitor traffic for
// platform subdomains plus any number of customer domains. The router
// sends each request to the handler registered for its host, with
// unmatched hosts (customer domains are never enumerable at config
// time) going to the fallback.
//
// # Host patterns
//
//   - Exact: "api.domainforge.app" matches only that host
//   - Wildcard: "*.domainforge.app" matches any direct subdomain
//
// Exact matches win over wildcards. Matching is case-insensitive and
// ports are stripped first, so "API.domainforge.app:8080" still hits
// the exact route. IPv6 literals like "[::1]:8080" keep their brackets
// through normalization.
//
// # Usage
//
//	root := hostrouter.New(hostrouter.Routes{
//	    "api.domainforge.app": apiHandler,
//	}, visitorHandler)
//	http.ListenAndServe(":8080", root)
package hostrouter
