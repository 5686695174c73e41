package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
)

// Instructions lists the DNS records a domain owner must create to
// verify and route a custom domain.
type Instructions struct {
	TXT     dnsverify.Record   `json:"txt"`
	Routing []dnsverify.Record `json:"routing,omitempty"`
	Note    string             `json:"note,omitempty"`
}

// Configure attaches domain to a project and issues the verification
// challenge: a pending record with a fresh token and a full verification
// window. The domain is normalized before validation, so values like
// "https://WWW.Example.com/" are accepted.
func (s *Service) Configure(ctx context.Context, projectID uuid.UUID, domain string) (*store.DomainRecord, *Instructions, error) {
	clean := dnsverify.CleanDomain(domain)
	if err := dnsverify.ValidateDomain(clean); err != nil {
		return nil, nil, err
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load project: %w", err)
	}

	now := time.Now().UTC()
	rec := &store.DomainRecord{
		ProjectID:               project.ID,
		CustomDomain:            clean,
		Status:                  store.StatusPending,
		VerificationToken:       dnsverify.GenerateToken(),
		MaxVerificationAttempts: s.maxAttempts,
		ExpiresAt:               now.Add(s.window),
	}
	if err := s.store.CreateDomainRecord(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("create domain record: %w", err)
	}

	s.log.InfoContext(ctx, "custom domain configured",
		slog.String("record_id", rec.ID.String()),
		slog.String("project_id", project.ID.String()),
		slog.String("domain", clean),
	)
	return rec, s.instructions(clean, rec.VerificationToken), nil
}

// Reconfigure restarts verification for an existing record: fresh token,
// fresh window, attempt counter back to zero, status pending. Cached
// redirects for the domain are dropped since the record is no longer
// verified.
func (s *Service) Reconfigure(ctx context.Context, recordID uuid.UUID) (*store.DomainRecord, *Instructions, error) {
	rec, err := s.store.GetDomainRecord(ctx, recordID)
	if err != nil {
		return nil, nil, fmt.Errorf("load domain record: %w", err)
	}

	token := dnsverify.GenerateToken()
	now := time.Now().UTC()
	expiresAt := now.Add(s.window)
	if err := s.store.ResetVerification(ctx, recordID, token, expiresAt); err != nil {
		return nil, nil, fmt.Errorf("reset verification: %w", err)
	}
	s.invalidateDomain(ctx, rec.CustomDomain)

	rec.Status = store.StatusPending
	rec.VerificationToken = token
	rec.VerificationAttempts = 0
	rec.DNSRecords = nil
	rec.ErrorMessage = ""
	rec.ExpiresAt = expiresAt
	rec.LastVerifiedAt = nil
	rec.UpdatedAt = now

	s.log.InfoContext(ctx, "domain verification reconfigured",
		slog.String("record_id", rec.ID.String()),
		slog.String("domain", rec.CustomDomain),
	)
	return rec, s.instructions(rec.CustomDomain, token), nil
}

// Remove detaches the domain record and drops any cached redirects
// pointing at its domain.
func (s *Service) Remove(ctx context.Context, recordID uuid.UUID) error {
	rec, err := s.store.GetDomainRecord(ctx, recordID)
	if err != nil {
		return fmt.Errorf("load domain record: %w", err)
	}
	if err := s.store.DeleteDomainRecord(ctx, recordID); err != nil {
		return fmt.Errorf("delete domain record: %w", err)
	}
	s.invalidateDomain(ctx, rec.CustomDomain)

	s.log.InfoContext(ctx, "custom domain removed",
		slog.String("record_id", rec.ID.String()),
		slog.String("domain", rec.CustomDomain),
	)
	return nil
}

// Get returns the current state of a domain record, the status surface
// the dashboard polls while the owner updates DNS.
func (s *Service) Get(ctx context.Context, recordID uuid.UUID) (*store.DomainRecord, error) {
	rec, err := s.store.GetDomainRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("load domain record: %w", err)
	}
	return rec, nil
}

func (s *Service) instructions(domain, token string) *Instructions {
	ins := &Instructions{
		TXT: dnsverify.Record{
			Name:  s.checker.TXTRecordName(domain),
			Type:  "TXT",
			Value: token,
		},
		Note: "create the TXT record to prove ownership of the domain",
	}
	if s.routeCNAME != "" {
		ins.Routing = append(ins.Routing, dnsverify.Record{Name: domain, Type: "CNAME", Value: s.routeCNAME})
	}
	for _, ip := range s.routeIPs {
		ins.Routing = append(ins.Routing, dnsverify.Record{Name: domain, Type: "A", Value: ip})
	}
	if len(ins.Routing) > 0 {
		ins.Note += ", then point it at the platform with the CNAME record (subdomains) or the A records (apex domains)"
	}
	return ins
}
