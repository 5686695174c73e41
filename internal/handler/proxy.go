package handler

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewRendererProxy builds the upstream handler that visitor traffic
// lands on after edge routing: a reverse proxy to the site renderer.
// The edge rewrite has already moved the tenant slug into the path, so
// the renderer sees /{subdomain}/... regardless of which hostname the
// visitor used; the original host travels in X-Forwarded-Host.
func NewRendererProxy(upstream *url.URL, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.ErrorContext(r.Context(), "renderer upstream unreachable",
				slog.String("upstream", upstream.Host),
				slog.Any("error", err),
			)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}
}
