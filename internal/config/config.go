// Package config aggregates the service configuration from the
// environment, with an optional YAML routing-policy file layered on top
// so the edge fleet can change hosts and resolvers without a rebuild.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/domainforge/pkg/db"
	"github.com/dmitrymomot/domainforge/pkg/logger"
	"github.com/dmitrymomot/domainforge/pkg/mailer"
	"github.com/dmitrymomot/domainforge/pkg/mailer/resend"
	"github.com/dmitrymomot/domainforge/pkg/redis"
)

// Config is the full service configuration. Every nested struct carries
// its own env tags; parse it once at startup with Load.
type Config struct {
	HTTP   HTTPConfig
	DB     db.Config
	Redis  redis.Config
	Log    logger.Config
	Mailer mailer.Config
	Resend resend.Config

	Verification VerificationConfig
	Cache        CacheConfig
	Edge         EdgeConfig
	Jobs         JobsConfig
}

// HTTPConfig is the listen address and the host split between the
// management API and visitor traffic.
type HTTPConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	// APIHost picks management API traffic out of the host router;
	// every other hostname is treated as visitor traffic.
	APIHost string `env:"API_HOST" envDefault:"api.domainforge.app"`

	// RendererURL is the upstream that serves visitor requests after
	// the edge rewrite.
	RendererURL string `env:"RENDERER_URL" envDefault:"http://localhost:8081"`

	// DashboardURL prefixes record links in outcome emails.
	DashboardURL string `env:"DASHBOARD_URL" envDefault:"https://domainforge.app"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// VerificationConfig tunes the verification orchestrator and its DNS
// checker. Defaults mirror the package defaults.
type VerificationConfig struct {
	Window      time.Duration `env:"VERIFICATION_WINDOW" envDefault:"168h"`
	MaxAttempts int           `env:"VERIFICATION_MAX_ATTEMPTS" envDefault:"5"`

	DNSTimeout    time.Duration `env:"VERIFICATION_DNS_TIMEOUT" envDefault:"10s"`
	DNSRetries    int           `env:"VERIFICATION_DNS_RETRIES" envDefault:"3"`
	DNSRetryDelay time.Duration `env:"VERIFICATION_DNS_RETRY_DELAY" envDefault:"2s"`

	// RouteCNAME and RouteIPs are the DNS targets customers point
	// their domains at, echoed in setup instructions and checked by
	// the routing probe.
	RouteCNAME string   `env:"VERIFICATION_ROUTE_CNAME" envDefault:"edge.domainforge.app"`
	RouteIPs   []string `env:"VERIFICATION_ROUTE_IPS"`
}

// CacheConfig tunes the redirect cache. Defaults mirror the package
// defaults.
type CacheConfig struct {
	TTL             time.Duration `env:"REDIRECT_CACHE_TTL" envDefault:"1h"`
	MaxEntries      int           `env:"REDIRECT_CACHE_MAX_ENTRIES" envDefault:"1000"`
	CleanupInterval time.Duration `env:"REDIRECT_CACHE_CLEANUP_INTERVAL" envDefault:"2m"`
}

// EdgeConfig is the routing policy: which hostnames belong to the
// platform itself, which path prefixes bypass the edge, and which public
// resolvers the propagation checker asks. Empty slices keep the package
// defaults. A PolicyFile, when set, overrides all three.
type EdgeConfig struct {
	PlatformHosts      []string `env:"EDGE_PLATFORM_HOSTS" envDefault:"domainforge.app,www.domainforge.app"`
	ExcludedPrefixes   []string `env:"EDGE_EXCLUDED_PREFIXES"`
	PropagationServers []string `env:"PROPAGATION_RESOLVERS"`

	PolicyFile string `env:"EDGE_POLICY_FILE"`
}

// JobsConfig tunes the background queue.
type JobsConfig struct {
	Queue            string        `env:"JOBS_QUEUE" envDefault:"domainforge_default"`
	Workers          int           `env:"JOBS_WORKERS" envDefault:"10"`
	ReverifyInterval time.Duration `env:"JOBS_REVERIFY_INTERVAL" envDefault:"24h"`

	// InsertOnly makes this instance enqueue jobs without working
	// them; edge instances run insert-only and leave the workers to
	// the API instance.
	InsertOnly bool `env:"JOBS_INSERT_ONLY" envDefault:"false"`
}

// Load parses the environment and applies the routing policy file on
// top when one is configured.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Edge.PolicyFile != "" {
		policy, err := loadPolicy(cfg.Edge.PolicyFile)
		if err != nil {
			return nil, err
		}
		cfg.Edge.apply(policy)
	}
	return &cfg, nil
}
