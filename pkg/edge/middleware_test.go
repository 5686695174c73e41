package edge_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/domainforge/pkg/edge"
	"github.com/dmitrymomot/domainforge/pkg/redirectcache"
)

func newMiddlewareRouter(t *testing.T, store edge.Store) (*edge.Router, *redirectcache.Cache) {
	t.Helper()
	cache := redirectcache.New(redirectcache.WithCleanupInterval(0))
	t.Cleanup(func() { _ = cache.Close() })
	return edge.New(cache, store, edge.WithPlatformHosts("domainforge.app")), cache
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("redirect decisions answer 301 with cache headers", func(t *testing.T) {
		t.Parallel()
		router, cache := newMiddlewareRouter(t, &fakeStore{})
		require.NoError(t, cache.Set("john-jane-2024", "ourwedding.com", true))

		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("redirects must not reach the next handler")
		})

		req := httptest.NewRequest(http.MethodGet, "/john-jane-2024?utm_source=card", nil)
		req.Host = "domainforge.app"
		rec := httptest.NewRecorder()
		router.Middleware(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusMovedPermanently, rec.Code)
		require.Equal(t, "https://ourwedding.com/john-jane-2024?utm_source=card", rec.Header().Get("Location"))
		require.Equal(t, "public, max-age=3600, immutable", rec.Header().Get("Cache-Control"))
		require.Equal(t, "cache", rec.Header().Get(edge.HeaderRedirectSource))
	})

	t.Run("rewrite decisions mutate the request path", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{hostnames: map[string]edge.HostnameMatch{
			"ourwedding.com": {Subdomain: "john-jane-2024", Published: true},
		}}
		router, _ := newMiddlewareRouter(t, store)

		var sawPath string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/photos", nil)
		req.Host = "ourwedding.com"
		rec := httptest.NewRecorder()
		router.Middleware(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "/john-jane-2024/photos", sawPath)
		require.Equal(t, "ourwedding.com", rec.Header().Get(edge.HeaderRewrittenFrom))
	})

	t.Run("unknown custom domains answer 404", func(t *testing.T) {
		t.Parallel()
		router, _ := newMiddlewareRouter(t, &fakeStore{})

		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("not-found decisions must not reach the next handler")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "stranger.com"
		rec := httptest.NewRecorder()
		router.Middleware(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "site not found")
	})

	t.Run("pass-through leaves the request untouched", func(t *testing.T) {
		t.Parallel()
		router, _ := newMiddlewareRouter(t, &fakeStore{})

		var sawPath string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawPath = r.URL.Path
			w.WriteHeader(http.StatusTeapot)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		req.Host = "domainforge.app"
		rec := httptest.NewRecorder()
		router.Middleware(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusTeapot, rec.Code)
		require.Equal(t, "/api/projects", sawPath)
		require.Empty(t, rec.Header().Get(edge.HeaderRewrittenFrom))
	})
}
