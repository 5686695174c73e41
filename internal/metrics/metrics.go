// Package metrics holds the service's Prometheus collectors: management
// API request counters, edge routing decisions, verification outcomes,
// and redirect cache effectiveness. Everything registers on the default
// registry and is served by the handler's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/domainforge/pkg/edge"
	"github.com/dmitrymomot/domainforge/pkg/redirectcache"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainforge_http_requests_total",
			Help: "HTTP requests served by the management API",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domainforge_http_request_duration_seconds",
			Help:    "Management API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	edgeDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainforge_edge_decisions_total",
			Help: "Edge routing decisions by action and answer source",
		},
		[]string{"action", "source"},
	)

	verificationChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainforge_verification_checks_total",
			Help: "Domain verification passes by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveEdgeDecision feeds the edge decision counter. Wire it with
// edge.WithDecisionObserver.
func ObserveEdgeDecision(d edge.Decision) {
	source := string(d.Source)
	if source == "" {
		source = "none"
	}
	edgeDecisions.WithLabelValues(string(d.Action), source).Inc()
}

// Verification outcomes.
const (
	OutcomeVerified        = "verified"
	OutcomeFailed          = "failed"
	OutcomeAlreadyVerified = "already_verified"
	OutcomeError           = "error"
)

// ObserveVerification counts one verification pass.
func ObserveVerification(outcome string) {
	verificationChecks.WithLabelValues(outcome).Inc()
}

// RegisterCache exports the redirect cache counters on reg, sampled from
// the cache's stats snapshot at scrape time.
func RegisterCache(reg prometheus.Registerer, cache *redirectcache.Cache) {
	factory := promauto.With(reg)

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "domainforge_redirect_cache_hits_total",
		Help: "Cache lookups answered without touching the store",
	}, func() float64 { return float64(cache.Stats().Hits) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "domainforge_redirect_cache_misses_total",
		Help: "Cache lookups that fell through to the store",
	}, func() float64 { return float64(cache.Stats().Misses) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "domainforge_redirect_cache_evictions_total",
		Help: "Entries evicted by the size bound",
	}, func() float64 { return float64(cache.Stats().Evictions) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "domainforge_redirect_cache_entries",
		Help: "Entries currently cached, negative answers included",
	}, func() float64 { return float64(cache.Stats().Size) })
}
