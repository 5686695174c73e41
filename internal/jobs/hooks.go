package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/domainforge/internal/verify"
	"github.com/dmitrymomot/domainforge/pkg/edge"
)

// VisitHook adapts the client to the edge's fire-and-forget visit
// callback. Failures are logged, never surfaced: losing an analytics
// event must not affect request serving.
func (c *Client) VisitHook() edge.VisitFunc {
	return func(ctx context.Context, v edge.Visit) {
		recordID, err := uuid.Parse(v.RecordID)
		if err != nil {
			c.log.WarnContext(ctx, "visit event with malformed record id",
				slog.String("record_id", v.RecordID),
				slog.Any("error", err),
			)
			return
		}
		args := VisitArgs{
			RecordID:   recordID,
			Hostname:   v.Hostname,
			Subdomain:  v.Subdomain,
			Path:       v.Path,
			OccurredAt: time.Now().UTC(),
		}
		if err := c.RecordVisit(ctx, args); err != nil {
			c.log.ErrorContext(ctx, "failed to enqueue visit",
				slog.String("hostname", v.Hostname),
				slog.Any("error", err),
			)
		}
	}
}

// NotifyHook adapts the client to the orchestrator's notification
// callback.
func (c *Client) NotifyHook() verify.NotifyFunc {
	return func(ctx context.Context, n verify.Notification) {
		args := NotifyArgs{
			RecordID: n.RecordID,
			Domain:   n.Domain,
			Verified: n.Verified,
			Reason:   n.Reason,
		}
		if err := c.NotifyOutcome(ctx, args); err != nil {
			c.log.ErrorContext(ctx, "failed to enqueue outcome notification",
				slog.String("domain", n.Domain),
				slog.Any("error", err),
			)
		}
	}
}
