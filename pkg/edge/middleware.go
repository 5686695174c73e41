package edge

import "net/http"

const (
	// HeaderRedirectSource tells clients and operators whether a redirect
	// came from the cache or a store fallback.
	HeaderRedirectSource = "X-Redirect-Source"
	// HeaderRewrittenFrom carries the original custom domain on
	// internally rewritten requests.
	HeaderRewrittenFrom = "X-Rewritten-From"
)

// Middleware applies routing decisions around next. Rewrites mutate the
// request path before calling next so the same rendering path serves
// subdomain and custom-domain visitors; redirects and not-found answers
// are served directly; everything else falls through untouched.
func (r *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		d := r.Route(req.Context(), req.Host, req.URL.Path, req.URL.RawQuery)

		switch d.Action {
		case ActionRedirect:
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			w.Header().Set(HeaderRedirectSource, string(d.Source))
			http.Redirect(w, req, d.RedirectURL, d.Status)
		case ActionRewrite:
			w.Header().Set(HeaderRewrittenFrom, d.Domain)
			req.URL.Path = d.RewritePath
			req.URL.RawPath = ""
			next.ServeHTTP(w, req)
		case ActionNotFound:
			http.Error(w, "site not found", http.StatusNotFound)
		default:
			next.ServeHTTP(w, req)
		}
	})
}
