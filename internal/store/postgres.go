package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
)

const domainRecordColumns = `id, project_id, custom_domain, status, verification_token,
	verification_attempts, max_verification_attempts, dns_records, error_message,
	expires_at, last_verified_at, created_at, updated_at`

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

func (p *Postgres) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	var pr Project
	err := p.db.QueryRow(ctx,
		`SELECT id, owner_email, subdomain, published, redirect_to_custom_domain, created_at, updated_at
		 FROM projects WHERE id = $1`, id,
	).Scan(&pr.ID, &pr.OwnerEmail, &pr.Subdomain, &pr.Published, &pr.RedirectToCustomDomain,
		&pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &pr, nil
}

func (p *Postgres) GetDomainRecord(ctx context.Context, id uuid.UUID) (*DomainRecord, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+domainRecordColumns+` FROM domain_records WHERE id = $1`, id)

	rec, err := scanDomainRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get domain record %s: %w", id, err)
	}
	return rec, nil
}

func (p *Postgres) FindByHostname(ctx context.Context, hostname string) (*HostnameProject, error) {
	var (
		hp  HostnameProject
		rec = &hp.Record
	)
	err := p.db.QueryRow(ctx,
		`SELECT r.id, r.project_id, r.custom_domain, r.status, r.verification_token,
			r.verification_attempts, r.max_verification_attempts, r.dns_records, r.error_message,
			r.expires_at, r.last_verified_at, r.created_at, r.updated_at,
			p.subdomain, p.published
		 FROM domain_records r
		 JOIN projects p ON p.id = r.project_id
		 WHERE r.custom_domain = $1 AND r.status = 'verified'`, hostname,
	).Scan(&rec.ID, &rec.ProjectID, &rec.CustomDomain, &rec.Status, &rec.VerificationToken,
		&rec.VerificationAttempts, &rec.MaxVerificationAttempts, &rec.DNSRecords, &rec.ErrorMessage,
		&rec.ExpiresAt, &rec.LastVerifiedAt, &rec.CreatedAt, &rec.UpdatedAt,
		&hp.Subdomain, &hp.Published)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find record for hostname %s: %w", hostname, err)
	}
	return &hp, nil
}

func (p *Postgres) FindRedirectTarget(ctx context.Context, subdomain string) (RedirectTarget, error) {
	var target RedirectTarget
	err := p.db.QueryRow(ctx,
		`SELECT COALESCE(r.custom_domain, ''),
			(r.id IS NOT NULL AND p.redirect_to_custom_domain)
		 FROM projects p
		 LEFT JOIN domain_records r ON r.project_id = p.id AND r.status = 'verified'
		 WHERE p.subdomain = $1`, subdomain,
	).Scan(&target.CustomDomain, &target.ShouldRedirect)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RedirectTarget{}, ErrNotFound
		}
		return RedirectTarget{}, fmt.Errorf("find redirect target for %s: %w", subdomain, err)
	}
	return target, nil
}

func (p *Postgres) CreateDomainRecord(ctx context.Context, rec *DomainRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := p.db.Exec(ctx,
		`INSERT INTO domain_records (id, project_id, custom_domain, status, verification_token,
			verification_attempts, max_verification_attempts, dns_records, error_message,
			expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.ProjectID, rec.CustomDomain, rec.Status, rec.VerificationToken,
		rec.VerificationAttempts, rec.MaxVerificationAttempts, rec.DNSRecords, rec.ErrorMessage,
		rec.ExpiresAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "custom_domain") {
				return ErrDomainTaken
			}
			return ErrProjectHasDomain
		}
		return fmt.Errorf("insert domain record: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteDomainRecord(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM domain_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete domain record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdateDomainStatus(ctx context.Context, id uuid.UUID, status Status, errMsg string, dnsRecords []dnsverify.Record) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE domain_records
		 SET status = $2,
			error_message = $3,
			dns_records = $4,
			last_verified_at = CASE WHEN $2 = 'verified' THEN now() ELSE last_verified_at END,
			updated_at = now()
		 WHERE id = $1`,
		id, status, errMsg, dnsRecords,
	)
	if err != nil {
		return fmt.Errorf("update domain record %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := p.db.QueryRow(ctx,
		`UPDATE domain_records
		 SET verification_attempts = verification_attempts + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING verification_attempts`, id,
	).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment attempts for %s: %w", id, err)
	}
	return attempts, nil
}

func (p *Postgres) ResetVerification(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE domain_records
		 SET verification_token = $2,
			expires_at = $3,
			status = 'pending',
			verification_attempts = 0,
			error_message = '',
			dns_records = '[]',
			last_verified_at = NULL,
			updated_at = now()
		 WHERE id = $1`,
		id, token, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("reset verification for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListVerified(ctx context.Context) ([]VerifiedDomain, error) {
	rows, err := p.db.Query(ctx,
		`SELECT r.id, r.project_id, p.subdomain, r.custom_domain, r.verification_token,
			p.redirect_to_custom_domain
		 FROM domain_records r
		 JOIN projects p ON p.id = r.project_id
		 WHERE r.status = 'verified'
		 ORDER BY r.custom_domain`,
	)
	if err != nil {
		return nil, fmt.Errorf("list verified domains: %w", err)
	}
	defer rows.Close()

	var verified []VerifiedDomain
	for rows.Next() {
		var v VerifiedDomain
		if err := rows.Scan(&v.RecordID, &v.ProjectID, &v.Subdomain, &v.CustomDomain,
			&v.VerificationToken, &v.ShouldRedirect); err != nil {
			return nil, fmt.Errorf("scan verified domain: %w", err)
		}
		verified = append(verified, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verified domains: %w", err)
	}
	return verified, nil
}

func (p *Postgres) RecordVisit(ctx context.Context, v Visit) error {
	occurredAt := v.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	_, err := p.db.Exec(ctx,
		`INSERT INTO domain_visits (record_id, hostname, subdomain, path, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		v.RecordID, v.Hostname, v.Subdomain, v.Path, occurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func scanDomainRecord(row pgx.Row) (*DomainRecord, error) {
	var rec DomainRecord
	err := row.Scan(&rec.ID, &rec.ProjectID, &rec.CustomDomain, &rec.Status, &rec.VerificationToken,
		&rec.VerificationAttempts, &rec.MaxVerificationAttempts, &rec.DNSRecords, &rec.ErrorMessage,
		&rec.ExpiresAt, &rec.LastVerifiedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
