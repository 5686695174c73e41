// Package logger provides structured logging with context extraction and
// optional Sentry error reporting.
//
// It extends log/slog with two capabilities: attributes pulled from the
// request context on every log call, and a fan-out that forwards warnings
// and errors to Sentry when a DSN is configured.
//
// # Usage
//
//	log := logger.New(logger.Config{Level: "debug"},
//		logger.RequestID,
//		logger.Hostname,
//	)
//
//	ctx := logger.ContextWithHostname(r.Context(), r.Host)
//	log.InfoContext(ctx, "routed", slog.String("action", "rewrite"))
//	// {"level":"INFO","msg":"routed","action":"rewrite","hostname":"ourwedding.com"}
//
// # Extractors
//
// A ContextExtractor returns one attribute per log call, so request-scoped
// values stay fresh. The package ships extractors for the chi request id,
// the routed hostname, and the domain record id; services can add their own.
//
// # Sentry
//
// When Config.SentryDSN is set, errors create Sentry Issues and warnings are
// stored as searchable logs. An empty DSN or a failed init degrades to
// stdout-only logging, so the same code path works in development.
package logger
