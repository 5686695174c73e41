package logger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
)

// ContextExtractor extracts a slog attribute from context.
// Return false to skip the attribute for that log entry.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type ctxKey int

const (
	hostnameKey ctxKey = iota
	recordIDKey
)

// ContextWithHostname stores the hostname being routed so extractors can
// attach it to every log line emitted while serving the request.
func ContextWithHostname(ctx context.Context, hostname string) context.Context {
	return context.WithValue(ctx, hostnameKey, hostname)
}

// ContextWithRecordID stores the domain record id for orchestration flows.
func ContextWithRecordID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, recordIDKey, id)
}

// RequestID extracts the chi request id when present.
func RequestID(ctx context.Context) (slog.Attr, bool) {
	if id := middleware.GetReqID(ctx); id != "" {
		return slog.String("request_id", id), true
	}
	return slog.Attr{}, false
}

// Hostname extracts the hostname stored by ContextWithHostname.
func Hostname(ctx context.Context) (slog.Attr, bool) {
	if host, ok := ctx.Value(hostnameKey).(string); ok && host != "" {
		return slog.String("hostname", host), true
	}
	return slog.Attr{}, false
}

// RecordID extracts the domain record id stored by ContextWithRecordID.
func RecordID(ctx context.Context) (slog.Attr, bool) {
	if id, ok := ctx.Value(recordIDKey).(string); ok && id != "" {
		return slog.String("record_id", id), true
	}
	return slog.Attr{}, false
}

// contextHandler wraps a slog.Handler and injects context-extracted
// attributes during logging. Extraction occurs per-log-call to capture
// fresh request-scoped values.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// newContextHandler filters nil extractors so a misconfigured option cannot
// panic at log time.
func newContextHandler(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	clean := make([]ContextExtractor, 0, len(extractors))
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	return &contextHandler{next: next, extractors: clean}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if len(h.extractors) == 0 {
		return h.next.Handle(ctx, rec)
	}
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
