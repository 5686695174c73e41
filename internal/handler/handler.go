// Package handler exposes the platform's HTTP surfaces: the v1
// management API the dashboard drives, operational probes and metrics,
// and the renderer proxy that sits behind the edge router.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/domainforge/internal/metrics"
	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/internal/verify"
	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
	"github.com/dmitrymomot/domainforge/pkg/health"
)

// Domains is the slice of the verification orchestrator the API drives.
type Domains interface {
	Configure(ctx context.Context, projectID uuid.UUID, domain string) (*store.DomainRecord, *verify.Instructions, error)
	Get(ctx context.Context, recordID uuid.UUID) (*store.DomainRecord, error)
	Verify(ctx context.Context, recordID uuid.UUID, force bool) (*verify.Outcome, error)
	Reconfigure(ctx context.Context, recordID uuid.UUID) (*store.DomainRecord, *verify.Instructions, error)
	Remove(ctx context.Context, recordID uuid.UUID) error
}

// Checker is the stateless DNS check surface backing /v1/dns/verify.
type Checker interface {
	VerifyOwnership(ctx context.Context, domain, expectedToken string) (*dnsverify.Result, error)
	CheckConnectivity(ctx context.Context, domain string) (*dnsverify.Result, error)
	CheckRouting(ctx context.Context, domain string) (*dnsverify.Result, error)
}

// Propagation asks public resolvers about the verification record.
type Propagation interface {
	Check(ctx context.Context, domain, token string) (*dnsverify.PropagationStatus, error)
}

// Handler assembles the management API router.
type Handler struct {
	domains     Domains
	checker     Checker
	propagation Propagation
	checks      health.Checks
	log         *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithReadyChecks sets the named dependency checks behind /readyz.
// Default: none, /readyz always reports healthy.
func WithReadyChecks(checks health.Checks) Option {
	return func(h *Handler) {
		h.checks = checks
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// New creates a Handler over the orchestrator and the stateless DNS
// checkers.
func New(domains Domains, checker Checker, propagation Propagation, opts ...Option) *Handler {
	h := &Handler{
		domains:     domains,
		checker:     checker,
		propagation: propagation,
		log:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes builds the management API. Mount it on the platform API host;
// visitor traffic goes through the edge middleware instead.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(h.checks, health.WithLogger(h.log)))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/dns/verify", h.dnsVerify)
		r.Post("/dns/propagation", h.dnsPropagation)

		r.Post("/domains", h.createDomain)
		r.Route("/domains/{id}", func(r chi.Router) {
			r.Get("/", h.getDomain)
			r.Delete("/", h.deleteDomain)
			r.Post("/verify", h.verifyDomain)
			r.Post("/reconfigure", h.reconfigureDomain)
		})
	})

	return r
}
