package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/domainforge/internal/config"
)

// setRequired sets the two connection URLs Load refuses to run without.
// Tests here cannot be parallel: they mutate the process environment.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_CONN_URL", "postgres://localhost:5432/domainforge?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoad(t *testing.T) {
	t.Run("defaults fill in around the required connections", func(t *testing.T) {
		setRequired(t)

		cfg, err := config.Load()
		require.NoError(t, err)

		require.Equal(t, ":8080", cfg.HTTP.Addr)
		require.Equal(t, "api.domainforge.app", cfg.HTTP.APIHost)
		require.Equal(t, "http://localhost:8081", cfg.HTTP.RendererURL)
		require.Equal(t, 168*time.Hour, cfg.Verification.Window)
		require.Equal(t, 5, cfg.Verification.MaxAttempts)
		require.Equal(t, "edge.domainforge.app", cfg.Verification.RouteCNAME)
		require.Equal(t, time.Hour, cfg.Cache.TTL)
		require.Equal(t, 1000, cfg.Cache.MaxEntries)
		require.Equal(t, []string{"domainforge.app", "www.domainforge.app"}, cfg.Edge.PlatformHosts)
		require.Empty(t, cfg.Edge.ExcludedPrefixes)
		require.Equal(t, "domainforge_default", cfg.Jobs.Queue)
		require.Equal(t, 10, cfg.Jobs.Workers)
		require.False(t, cfg.Jobs.InsertOnly)
	})

	t.Run("missing database url fails", func(t *testing.T) {
		setRequired(t)
		// t.Setenv registered the restore; drop the variable for real.
		require.NoError(t, os.Unsetenv("DATABASE_CONN_URL"))

		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "DATABASE_CONN_URL")
	})

	t.Run("environment overrides parse typed values", func(t *testing.T) {
		setRequired(t)
		t.Setenv("VERIFICATION_WINDOW", "24h")
		t.Setenv("VERIFICATION_ROUTE_IPS", "203.0.113.10,203.0.113.11")
		t.Setenv("EDGE_PLATFORM_HOSTS", "example.app,www.example.app,preview.example.app")
		t.Setenv("JOBS_INSERT_ONLY", "true")

		cfg, err := config.Load()
		require.NoError(t, err)

		require.Equal(t, 24*time.Hour, cfg.Verification.Window)
		require.Equal(t, []string{"203.0.113.10", "203.0.113.11"}, cfg.Verification.RouteIPs)
		require.Len(t, cfg.Edge.PlatformHosts, 3)
		require.True(t, cfg.Jobs.InsertOnly)
	})
}

func TestPolicyFile(t *testing.T) {
	writePolicy := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	t.Run("policy file replaces the env-seeded routing", func(t *testing.T) {
		setRequired(t)
		path := writePolicy(t, `
platform_hosts:
  - staging.domainforge.app
excluded_prefixes:
  - /internal/
propagation_servers:
  - 1.1.1.1:53
  - 9.9.9.9:53
`)
		t.Setenv("EDGE_POLICY_FILE", path)

		cfg, err := config.Load()
		require.NoError(t, err)

		require.Equal(t, []string{"staging.domainforge.app"}, cfg.Edge.PlatformHosts)
		require.Equal(t, []string{"/internal/"}, cfg.Edge.ExcludedPrefixes)
		require.Equal(t, []string{"1.1.1.1:53", "9.9.9.9:53"}, cfg.Edge.PropagationServers)
	})

	t.Run("omitted policy fields keep the env values", func(t *testing.T) {
		setRequired(t)
		path := writePolicy(t, "excluded_prefixes:\n  - /internal/\n")
		t.Setenv("EDGE_POLICY_FILE", path)

		cfg, err := config.Load()
		require.NoError(t, err)

		require.Equal(t, []string{"domainforge.app", "www.domainforge.app"}, cfg.Edge.PlatformHosts)
		require.Equal(t, []string{"/internal/"}, cfg.Edge.ExcludedPrefixes)
	})

	t.Run("missing policy file fails", func(t *testing.T) {
		setRequired(t)
		t.Setenv("EDGE_POLICY_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "read policy file")
	})

	t.Run("malformed policy file fails", func(t *testing.T) {
		setRequired(t)
		path := writePolicy(t, "platform_hosts: [unclosed\n")
		t.Setenv("EDGE_POLICY_FILE", path)

		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "parse policy file")
	})
}
