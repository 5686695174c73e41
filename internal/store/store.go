package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDomainTaken is returned when the custom domain is already attached
	// to another project.
	ErrDomainTaken = errors.New("store: domain already in use")
	// ErrProjectHasDomain is returned when the project already has a domain
	// record; use Reconfigure or remove the record first.
	ErrProjectHasDomain = errors.New("store: project already has a domain")
)

// Store is the persistence boundary for domain records, their projects,
// and visit analytics.
type Store interface {
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	GetDomainRecord(ctx context.Context, id uuid.UUID) (*DomainRecord, error)

	// FindByHostname resolves a custom domain to its verified record and
	// owning project. Returns ErrNotFound when no verified record exists.
	FindByHostname(ctx context.Context, hostname string) (*HostnameProject, error)

	// FindRedirectTarget resolves a platform subdomain to its redirect
	// mapping. A project without a verified domain, or with redirects
	// switched off, yields the zero RedirectTarget and no error so the
	// answer can be cached. An unknown subdomain returns ErrNotFound.
	FindRedirectTarget(ctx context.Context, subdomain string) (RedirectTarget, error)

	CreateDomainRecord(ctx context.Context, rec *DomainRecord) error
	DeleteDomainRecord(ctx context.Context, id uuid.UUID) error

	// UpdateDomainStatus persists a verification outcome. When status is
	// StatusVerified the last-verified timestamp advances as well.
	UpdateDomainStatus(ctx context.Context, id uuid.UUID, status Status, errMsg string, dnsRecords []dnsverify.Record) error

	// IncrementAttempts bumps the attempt counter and returns the new value.
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)

	// ResetVerification issues a fresh token and window and returns the
	// record to pending with zero attempts.
	ResetVerification(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error

	// ListVerified returns every verified mapping, for cache warming and
	// periodic re-verification.
	ListVerified(ctx context.Context) ([]VerifiedDomain, error)

	RecordVisit(ctx context.Context, v Visit) error
}
