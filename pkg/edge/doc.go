// Package edge decides, per request, whether tenant traffic should be
// rewritten, redirected or passed through.
//
// Three cases exist:
//
//   - A request on a custom domain (any host outside the platform's own
//     domain set) is resolved against the store and internally rewritten
//     to the tenant's canonical slug path, so one rendering path serves
//     both kinds of visitors. A fire-and-forget visit event is emitted.
//   - A request on a platform host whose path is a single-segment tenant
//     slug consults the redirect cache (store fallback with
//     repopulation, negative answers included) and 301s to the verified
//     custom domain when one exists, preserving path and query.
//   - Everything else, including excluded path prefixes such as APIs,
//     assets and health checks, passes through untouched.
//
// Routing is strictly best-effort: store failures, malformed records and
// cache problems are logged and collapse to pass-through. Serving the
// site always wins over serving the redirect.
//
// Use Route for the bare decision or Middleware to apply it:
//
//	router := edge.New(cache, store,
//	    edge.WithPlatformHosts("domainforge.app", "*.domainforge.app"),
//	)
//	handler := router.Middleware(renderer)
package edge
