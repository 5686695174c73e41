// Package notify composes and delivers verification outcome emails to
// project owners.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/pkg/mailer"
)

// Template filenames inside templates.FS.
const (
	templateVerified = "domain_verified.md"
	templateFailed   = "verification_failed.md"
)

// Notifier emails project owners about verification outcomes. It is the
// delivery end of the notification job queue.
type Notifier struct {
	store        store.Store
	mailer       *mailer.Mailer
	dashboardURL string
	log          *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithDashboardURL sets the base URL for "review settings" links in
// failure emails. Default: https://domainforge.app.
func WithDashboardURL(url string) Option {
	return func(n *Notifier) {
		if url != "" {
			n.dashboardURL = strings.TrimRight(url, "/")
		}
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) {
		if log != nil {
			n.log = log
		}
	}
}

// New creates a Notifier that resolves recipients through st and sends
// through m. The mailer's renderer must be built over templates.FS.
func New(st store.Store, m *mailer.Mailer, opts ...Option) *Notifier {
	n := &Notifier{
		store:        st,
		mailer:       m,
		dashboardURL: "https://domainforge.app",
		log:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendOutcome emails the owning project about a verification outcome.
// The domain argument names the domain the outcome was about, which may
// differ from the record's current domain after a reconfigure. Deleted
// records and projects are skipped without error: the outcome is stale
// and there is nobody left to tell. Delivery failures return an error
// so the job can retry.
func (n *Notifier) SendOutcome(ctx context.Context, recordID uuid.UUID, domain string, verified bool, reason string) error {
	rec, err := n.store.GetDomainRecord(ctx, recordID)
	if errors.Is(err, store.ErrNotFound) {
		n.log.InfoContext(ctx, "domain record gone, dropping outcome email",
			slog.String("record_id", recordID.String()),
			slog.String("custom_domain", domain))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load domain record: %w", err)
	}

	project, err := n.store.GetProject(ctx, rec.ProjectID)
	if errors.Is(err, store.ErrNotFound) {
		n.log.WarnContext(ctx, "domain record without a project, dropping outcome email",
			slog.String("record_id", recordID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if project.OwnerEmail == "" {
		n.log.WarnContext(ctx, "project has no owner email, dropping outcome email",
			slog.String("project_id", project.ID.String()))
		return nil
	}

	template := templateFailed
	if verified {
		template = templateVerified
	}

	err = n.mailer.Send(ctx, mailer.SendParams{
		To:       project.OwnerEmail,
		Template: template,
		Data: map[string]any{
			"Domain":       domain,
			"Reason":       reason,
			"Attempts":     rec.VerificationAttempts,
			"MaxAttempts":  rec.MaxVerificationAttempts,
			"SiteURL":      "https://" + domain,
			"DashboardURL": n.dashboardURL + "/domains/" + recordID.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("send outcome email: %w", err)
	}

	n.log.InfoContext(ctx, "sent verification outcome email",
		slog.String("custom_domain", domain),
		slog.Bool("verified", verified))
	return nil
}
