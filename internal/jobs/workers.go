package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/internal/verify"
)

// OutcomeNotifier composes and sends the verification outcome email.
type OutcomeNotifier interface {
	SendOutcome(ctx context.Context, recordID uuid.UUID, domain string, verified bool, reason string) error
}

// Reverifier re-checks ownership for every verified domain.
type Reverifier interface {
	ReverifyAll(ctx context.Context) (verify.ReverifySummary, error)
}

// RecordVisitWorker persists visit events emitted by the edge. Errors
// surface to river, which retries up to the args' attempt budget.
type RecordVisitWorker struct {
	river.WorkerDefaults[VisitArgs]
	store store.Store
}

func (w *RecordVisitWorker) Work(ctx context.Context, job *river.Job[VisitArgs]) error {
	return recordVisit(ctx, w.store, job.Args)
}

func recordVisit(ctx context.Context, st store.Store, args VisitArgs) error {
	occurred := args.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	err := st.RecordVisit(ctx, store.Visit{
		RecordID:   args.RecordID,
		Hostname:   args.Hostname,
		Subdomain:  args.Subdomain,
		Path:       args.Path,
		OccurredAt: occurred,
	})
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// NotifyWorker delivers outcome notifications through the notifier.
type NotifyWorker struct {
	river.WorkerDefaults[NotifyArgs]
	notifier OutcomeNotifier
}

func (w *NotifyWorker) Work(ctx context.Context, job *river.Job[NotifyArgs]) error {
	args := job.Args
	if err := w.notifier.SendOutcome(ctx, args.RecordID, args.Domain, args.Verified, args.Reason); err != nil {
		return fmt.Errorf("send outcome notification: %w", err)
	}
	return nil
}

// ReverifyWorker runs the periodic sweep over verified domains.
type ReverifyWorker struct {
	river.WorkerDefaults[ReverifyArgs]
	reverifier Reverifier
	log        *slog.Logger
}

func (w *ReverifyWorker) Work(ctx context.Context, _ *river.Job[ReverifyArgs]) error {
	sum, err := w.reverifier.ReverifyAll(ctx)
	if err != nil {
		return fmt.Errorf("re-verification sweep: %w", err)
	}
	w.log.InfoContext(ctx, "re-verification sweep finished",
		slog.Int("checked", sum.Checked),
		slog.Int("demoted", sum.Demoted),
		slog.Int("transient", sum.Transient),
	)
	return nil
}

// Timeout widens the default job timeout: a sweep resolves DNS for every
// verified domain and legitimately runs long.
func (w *ReverifyWorker) Timeout(*river.Job[ReverifyArgs]) time.Duration {
	return 30 * time.Minute
}
