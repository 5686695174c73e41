package jobs

import (
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// QueueDefault is the queue all of the service's background work runs on.
const QueueDefault = "domainforge_default"

// VisitArgs is one page view served through a custom domain, emitted by
// the edge and persisted by RecordVisitWorker.
type VisitArgs struct {
	RecordID   uuid.UUID `json:"record_id"`
	Hostname   string    `json:"hostname"`
	Subdomain  string    `json:"subdomain"`
	Path       string    `json:"path"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (VisitArgs) Kind() string { return "domain_visit_record" }

func (VisitArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 3}
}

// NotifyArgs is a verification outcome to email the domain owner about.
// Domain is carried so the email names the domain the outcome was about
// even when the record has been reconfigured to a new one since.
type NotifyArgs struct {
	RecordID uuid.UUID `json:"record_id"`
	Domain   string    `json:"domain"`
	Verified bool      `json:"verified"`
	Reason   string    `json:"reason,omitempty"`
}

func (NotifyArgs) Kind() string { return "domain_notify_outcome" }

func (NotifyArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 5}
}

// ReverifyArgs triggers one sweep over every verified domain. Enqueued
// periodically; carries no payload.
type ReverifyArgs struct{}

func (ReverifyArgs) Kind() string { return "domain_reverify_sweep" }

func (ReverifyArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 1}
}
