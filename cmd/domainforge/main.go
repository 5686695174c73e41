// Command domainforge runs the custom-domain platform service: the
// management API on the API host, edge routing for every other
// hostname, and the background queue workers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/domainforge/internal/config"
	"github.com/dmitrymomot/domainforge/internal/handler"
	"github.com/dmitrymomot/domainforge/internal/jobs"
	"github.com/dmitrymomot/domainforge/internal/metrics"
	"github.com/dmitrymomot/domainforge/internal/notify"
	"github.com/dmitrymomot/domainforge/internal/notify/templates"
	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/internal/store/migrations"
	"github.com/dmitrymomot/domainforge/internal/verify"
	"github.com/dmitrymomot/domainforge/pkg/db"
	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
	"github.com/dmitrymomot/domainforge/pkg/edge"
	"github.com/dmitrymomot/domainforge/pkg/health"
	"github.com/dmitrymomot/domainforge/pkg/hostrouter"
	"github.com/dmitrymomot/domainforge/pkg/logger"
	"github.com/dmitrymomot/domainforge/pkg/mailer"
	"github.com/dmitrymomot/domainforge/pkg/mailer/resend"
	"github.com/dmitrymomot/domainforge/pkg/redirectcache"
	"github.com/dmitrymomot/domainforge/pkg/redis"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "domainforge:", err)
		os.Exit(1)
	}
}

func run(base context.Context) error {
	ctx, cancel := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rendererURL, err := url.Parse(cfg.HTTP.RendererURL)
	if err != nil {
		return fmt.Errorf("parse renderer url: %w", err)
	}

	log := logger.New(cfg.Log, logger.RequestID, logger.Hostname, logger.RecordID)
	slog.SetDefault(log)

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.FS, cfg.DB.MigrationsTable, log); err != nil {
		return fmt.Errorf("migrate domain schema: %w", err)
	}
	if err := jobs.Migrate(ctx, pool); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	st := store.NewPostgres(pool)

	cache := redirectcache.New(
		redirectcache.WithDefaultTTL(cfg.Cache.TTL),
		redirectcache.WithMaxEntries(cfg.Cache.MaxEntries),
		redirectcache.WithCleanupInterval(cfg.Cache.CleanupInterval),
	)
	metrics.RegisterCache(prometheus.DefaultRegisterer, cache)
	broadcaster := redirectcache.NewBroadcaster(rdb, cache, redirectcache.WithBroadcastLogger(log))

	checker := dnsverify.New(
		dnsverify.WithTimeout(cfg.Verification.DNSTimeout),
		dnsverify.WithMaxRetries(cfg.Verification.DNSRetries),
		dnsverify.WithRetryDelay(cfg.Verification.DNSRetryDelay),
		dnsverify.WithRoutingTarget(cfg.Verification.RouteCNAME, cfg.Verification.RouteIPs...),
		dnsverify.WithLogger(log),
	)

	propagationOpts := []dnsverify.PropagationOption{dnsverify.WithPropagationLogger(log)}
	if len(cfg.Edge.PropagationServers) > 0 {
		propagationOpts = append(propagationOpts,
			dnsverify.WithPropagationServers(cfg.Edge.PropagationServers...))
	}
	propagation := dnsverify.NewPropagationChecker(propagationOpts...)

	// The orchestrator notifies through the queue and the queue's sweep
	// worker runs the orchestrator, so the notify side binds late. The
	// hook drops notifications until the queue exists, which is before
	// the server accepts its first request.
	var queue *jobs.Client
	svc := verify.New(st, checker, cache,
		verify.WithMaxAttempts(cfg.Verification.MaxAttempts),
		verify.WithWindow(cfg.Verification.Window),
		verify.WithRoutingTarget(cfg.Verification.RouteCNAME, cfg.Verification.RouteIPs...),
		verify.WithBroadcaster(broadcaster),
		verify.WithNotifier(func(ctx context.Context, n verify.Notification) {
			if queue != nil {
				queue.NotifyHook()(ctx, n)
			}
		}),
		verify.WithLogger(log),
	)

	outbox := notify.New(st,
		mailer.New(resend.New(cfg.Resend), mailer.NewRenderer(templates.FS), cfg.Mailer),
		notify.WithDashboardURL(cfg.HTTP.DashboardURL),
		notify.WithLogger(log),
	)

	queueOpts := []jobs.Option{
		jobs.WithQueue(cfg.Jobs.Queue),
		jobs.WithWorkerCount(cfg.Jobs.Workers),
		jobs.WithReverifyInterval(cfg.Jobs.ReverifyInterval),
		jobs.WithLogger(log),
	}
	if cfg.Jobs.InsertOnly {
		queue, err = jobs.NewInsertOnly(pool, queueOpts...)
	} else {
		queue, err = jobs.New(pool, st, outbox, svc, queueOpts...)
	}
	if err != nil {
		return fmt.Errorf("build queue: %w", err)
	}

	edgeOpts := []edge.Option{
		edge.WithPlatformHosts(cfg.Edge.PlatformHosts...),
		edge.WithVisitRecorder(queue.VisitHook()),
		edge.WithDecisionObserver(metrics.ObserveEdgeDecision),
		edge.WithLogger(log),
	}
	if len(cfg.Edge.ExcludedPrefixes) > 0 {
		edgeOpts = append(edgeOpts, edge.WithExcludedPrefixes(cfg.Edge.ExcludedPrefixes...))
	}
	edgeRouter := edge.New(cache, store.NewEdgeStore(st), edgeOpts...)

	api := handler.New(svc, checker, propagation,
		handler.WithReadyChecks(health.Checks{
			"postgres": db.Healthcheck(pool),
			"redis":    redis.Healthcheck(rdb),
			"queue":    queue.Healthcheck,
		}),
		handler.WithLogger(log),
	).Routes()

	visitors := edgeRouter.Middleware(handler.NewRendererProxy(rendererURL, log))
	root := hostrouter.New(hostrouter.Routes{cfg.HTTP.APIHost: api}, visitors)

	if warmed, err := svc.WarmCache(ctx); err != nil {
		log.WarnContext(ctx, "redirect cache warmup failed", slog.Any("error", err))
	} else {
		log.InfoContext(ctx, "redirect cache warmed", slog.Int("entries", warmed))
	}

	go func() {
		if err := broadcaster.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.ErrorContext(ctx, "invalidation listener stopped", slog.Any("error", err))
		}
	}()

	if err := queue.Start(ctx); err != nil {
		return fmt.Errorf("start queue: %w", err)
	}

	return serve(ctx, cfg.HTTP, root, log, []func(context.Context) error{
		queue.Stop,
		redis.Shutdown(rdb),
		func(context.Context) error { return cache.Close() },
		db.Shutdown(pool),
	})
}

// serve listens, runs the server until the context is cancelled, then
// shuts down within the configured timeout and runs the hooks in order.
func serve(ctx context.Context, cfg config.HTTPConfig, h http.Handler, log *slog.Logger, hooks []func(context.Context) error) error {
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started",
			slog.String("address", ln.Addr().String()),
			slog.String("api_host", cfg.APIHost),
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range hooks {
		if err := hook(shutdownCtx); err != nil {
			errs = append(errs, err)
			log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Info("shutdown complete")
	return nil
}
