package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
)

// Status is the lifecycle state of a domain record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusFailed   Status = "failed"
	StatusExpired  Status = "expired"
)

// DomainRecord tracks one custom domain attached to a project, from
// configuration through verification.
type DomainRecord struct {
	ID                      uuid.UUID          `json:"id"`
	ProjectID               uuid.UUID          `json:"project_id"`
	CustomDomain            string             `json:"custom_domain"`
	Status                  Status             `json:"status"`
	VerificationToken       string             `json:"verification_token"`
	VerificationAttempts    int                `json:"verification_attempts"`
	MaxVerificationAttempts int                `json:"max_verification_attempts"`
	DNSRecords              []dnsverify.Record `json:"dns_records,omitempty"`
	ErrorMessage            string             `json:"error_message,omitempty"`
	ExpiresAt               time.Time          `json:"expires_at"`
	LastVerifiedAt          *time.Time         `json:"last_verified_at,omitempty"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`
}

// Expired reports whether the verification window has closed.
func (r *DomainRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// AttemptsExhausted reports whether the record hit its attempt ceiling.
func (r *DomainRecord) AttemptsExhausted() bool {
	return r.VerificationAttempts >= r.MaxVerificationAttempts
}

// Project is the site a domain record belongs to.
type Project struct {
	ID                     uuid.UUID `json:"id"`
	OwnerEmail             string    `json:"owner_email"`
	Subdomain              string    `json:"subdomain"`
	Published              bool      `json:"published"`
	RedirectToCustomDomain bool      `json:"redirect_to_custom_domain"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// HostnameProject is the edge lookup result for a custom domain: the
// verified record plus the owning project's routing fields.
type HostnameProject struct {
	Record    DomainRecord `json:"record"`
	Subdomain string       `json:"subdomain"`
	Published bool         `json:"published"`
}

// RedirectTarget is the edge lookup result for a platform subdomain. The
// zero value means "no redirect" and is valid to cache.
type RedirectTarget struct {
	CustomDomain   string `json:"custom_domain"`
	ShouldRedirect bool   `json:"should_redirect"`
}

// VerifiedDomain is one row of the verified mapping set, used to warm the
// redirect cache and to drive periodic re-verification.
type VerifiedDomain struct {
	RecordID          uuid.UUID `json:"record_id"`
	ProjectID         uuid.UUID `json:"project_id"`
	Subdomain         string    `json:"subdomain"`
	CustomDomain      string    `json:"custom_domain"`
	VerificationToken string    `json:"verification_token"`
	ShouldRedirect    bool      `json:"should_redirect"`
}

// Visit is one page view served through a custom domain.
type Visit struct {
	RecordID   uuid.UUID `json:"record_id"`
	Hostname   string    `json:"hostname"`
	Subdomain  string    `json:"subdomain"`
	Path       string    `json:"path"`
	OccurredAt time.Time `json:"occurred_at"`
}
