package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
	"github.com/dmitrymomot/domainforge/pkg/redirectcache"
)

// Outcome is the result of one verification pass: the record as it
// stands after the pass and, unless the pass short-circuited, the DNS
// evidence behind it.
type Outcome struct {
	Record          *store.DomainRecord `json:"record"`
	Result          *dnsverify.Result   `json:"result,omitempty"`
	AlreadyVerified bool                `json:"already_verified,omitempty"`
}

// Verify runs one verification pass over a domain record. The guards run
// strictly before any DNS traffic: an expired window ends verification
// until the record is reconfigured, an exhausted attempt budget
// rate-limits it, and an already verified record short-circuits unless
// force is set. A DNS-level failure is not an error; it is counted
// against the budget, persisted with its classified message, and
// reported in the outcome.
func (s *Service) Verify(ctx context.Context, recordID uuid.UUID, force bool) (*Outcome, error) {
	rec, err := s.store.GetDomainRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("load domain record: %w", err)
	}

	now := time.Now().UTC()
	if rec.Expired(now) {
		if rec.Status != store.StatusExpired {
			msg := "verification window expired; reconfigure the domain to continue"
			if err := s.store.UpdateDomainStatus(ctx, recordID, store.StatusExpired, msg, nil); err != nil {
				s.log.ErrorContext(ctx, "failed to mark record expired",
					slog.String("record_id", recordID.String()),
					slog.Any("error", err),
				)
			}
		}
		return nil, ErrWindowExpired
	}
	if rec.AttemptsExhausted() {
		return nil, ErrTooManyAttempts
	}
	if rec.Status == store.StatusVerified && !force {
		return &Outcome{Record: rec, AlreadyVerified: true}, nil
	}

	result, err := s.checker.VerifyOwnership(ctx, rec.CustomDomain, rec.VerificationToken)
	if err != nil {
		return nil, fmt.Errorf("ownership check: %w", err)
	}
	if result.Success {
		return s.applySuccess(ctx, rec, result, now)
	}
	return s.applyFailure(ctx, rec, result, now)
}

func (s *Service) applySuccess(ctx context.Context, rec *store.DomainRecord, result *dnsverify.Result, now time.Time) (*Outcome, error) {
	if err := s.store.UpdateDomainStatus(ctx, rec.ID, store.StatusVerified, "", result.Records); err != nil {
		return nil, fmt.Errorf("persist verified status: %w", err)
	}
	rec.Status = store.StatusVerified
	rec.ErrorMessage = ""
	rec.DNSRecords = result.Records
	rec.LastVerifiedAt = &now
	rec.UpdatedAt = now

	s.refreshRedirect(ctx, rec)
	s.dispatchNotify(ctx, Notification{RecordID: rec.ID, Domain: rec.CustomDomain, Verified: true})

	s.log.InfoContext(ctx, "custom domain verified",
		slog.String("record_id", rec.ID.String()),
		slog.String("domain", rec.CustomDomain),
		slog.Int64("response_time_ms", result.ResponseTimeMS),
	)
	return &Outcome{Record: rec, Result: result}, nil
}

func (s *Service) applyFailure(ctx context.Context, rec *store.DomainRecord, result *dnsverify.Result, now time.Time) (*Outcome, error) {
	attempts, err := s.store.IncrementAttempts(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("count verification attempt: %w", err)
	}
	if err := s.store.UpdateDomainStatus(ctx, rec.ID, store.StatusFailed, result.Error, result.Records); err != nil {
		return nil, fmt.Errorf("persist failed status: %w", err)
	}
	rec.Status = store.StatusFailed
	rec.VerificationAttempts = attempts
	rec.ErrorMessage = result.Error
	rec.DNSRecords = result.Records
	rec.UpdatedAt = now

	s.dispatchNotify(ctx, Notification{RecordID: rec.ID, Domain: rec.CustomDomain, Verified: false, Reason: result.Error})

	s.log.InfoContext(ctx, "domain verification failed",
		slog.String("record_id", rec.ID.String()),
		slog.String("domain", rec.CustomDomain),
		slog.String("code", string(result.Code)),
		slog.Int("attempts", attempts),
		slog.Int("max_attempts", rec.MaxVerificationAttempts),
	)
	return &Outcome{Record: rec, Result: result}, nil
}

// refreshRedirect aligns the redirect cache with a freshly verified
// record: a stale mapping to a previous domain is dropped fleet-wide and
// the current mapping cached locally. Failures here are logged only; the
// next cache miss repopulates from the store.
func (s *Service) refreshRedirect(ctx context.Context, rec *store.DomainRecord) {
	project, err := s.store.GetProject(ctx, rec.ProjectID)
	if err != nil {
		s.log.ErrorContext(ctx, "redirect cache refresh skipped",
			slog.String("record_id", rec.ID.String()),
			slog.Any("error", err),
		)
		return
	}

	if entry, err := s.cache.Get(project.Subdomain); err == nil &&
		entry.CustomDomain != "" && entry.CustomDomain != rec.CustomDomain {
		s.invalidateDomain(ctx, entry.CustomDomain)
	}
	if err := s.cache.Set(project.Subdomain, rec.CustomDomain, project.RedirectToCustomDomain); err != nil {
		s.log.WarnContext(ctx, "redirect cache set failed",
			slog.String("subdomain", project.Subdomain),
			slog.Any("error", err),
		)
	}
}

// WarmCache bulk-loads every verified mapping into the redirect cache so
// a fresh instance answers from memory immediately. Returns the number
// of entries loaded.
func (s *Service) WarmCache(ctx context.Context) (int, error) {
	verified, err := s.store.ListVerified(ctx)
	if err != nil {
		return 0, fmt.Errorf("list verified domains: %w", err)
	}
	if len(verified) == 0 {
		return 0, nil
	}

	entries := make([]redirectcache.Entry, len(verified))
	for i, v := range verified {
		entries[i] = redirectcache.Entry{
			Subdomain:      v.Subdomain,
			CustomDomain:   v.CustomDomain,
			ShouldRedirect: v.ShouldRedirect,
		}
	}
	if err := s.cache.SetMany(entries); err != nil {
		return 0, fmt.Errorf("warm redirect cache: %w", err)
	}

	s.log.InfoContext(ctx, "redirect cache warmed", slog.Int("entries", len(entries)))
	return len(entries), nil
}

// ReverifySummary tallies one re-verification sweep.
type ReverifySummary struct {
	Checked   int `json:"checked"`
	Demoted   int `json:"demoted"`
	Transient int `json:"transient"`
}

// ReverifyAll re-checks ownership for every verified domain. A domain
// whose verification record is gone for good is demoted to failed,
// dropped from the cache fleet-wide, and its owner notified. Transient
// DNS trouble leaves the record verified; a healthy check advances its
// last-verified timestamp.
func (s *Service) ReverifyAll(ctx context.Context) (ReverifySummary, error) {
	var sum ReverifySummary

	verified, err := s.store.ListVerified(ctx)
	if err != nil {
		return sum, fmt.Errorf("list verified domains: %w", err)
	}

	for _, v := range verified {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Checked++

		result, err := s.checker.VerifyOwnership(ctx, v.CustomDomain, v.VerificationToken)
		if err != nil {
			sum.Transient++
			s.log.WarnContext(ctx, "re-verification check failed",
				slog.String("domain", v.CustomDomain),
				slog.Any("error", err),
			)
			continue
		}

		switch {
		case result.Success:
			if err := s.store.UpdateDomainStatus(ctx, v.RecordID, store.StatusVerified, "", result.Records); err != nil {
				s.log.WarnContext(ctx, "failed to refresh verified status",
					slog.String("record_id", v.RecordID.String()),
					slog.Any("error", err),
				)
			}
		case result.Code.Permanent():
			if err := s.store.UpdateDomainStatus(ctx, v.RecordID, store.StatusFailed, result.Error, result.Records); err != nil {
				s.log.ErrorContext(ctx, "failed to demote domain",
					slog.String("record_id", v.RecordID.String()),
					slog.Any("error", err),
				)
				continue
			}
			s.invalidateDomain(ctx, v.CustomDomain)
			s.dispatchNotify(ctx, Notification{RecordID: v.RecordID, Domain: v.CustomDomain, Verified: false, Reason: result.Error})
			sum.Demoted++
			s.log.InfoContext(ctx, "verified domain demoted",
				slog.String("record_id", v.RecordID.String()),
				slog.String("domain", v.CustomDomain),
				slog.String("code", string(result.Code)),
			)
		default:
			sum.Transient++
			s.log.WarnContext(ctx, "re-verification inconclusive",
				slog.String("domain", v.CustomDomain),
				slog.String("code", string(result.Code)),
			)
		}
	}
	return sum, nil
}
