package dnsverify

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"slices"
	"strings"
	"time"
)

var (
	// ErrInvalidToken is returned when an empty verification token is passed.
	ErrInvalidToken = errors.New("dnsverify: verification token is required")
	// ErrNoRoutingTarget is returned by CheckRouting when the verifier was
	// built without WithRoutingTarget.
	ErrNoRoutingTarget = errors.New("dnsverify: no routing target configured")
)

// Resolver is the subset of net.Resolver the verifier relies on. Tests
// substitute a fake to avoid touching the network.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// Verifier performs DNS-based ownership and routing checks for custom
// domains. The zero value is not usable; construct with New.
type Verifier struct {
	resolver   Resolver
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	txtPrefix  string
	routeCNAME string
	routeIPs   map[string]struct{}
	log        *slog.Logger
}

// New returns a Verifier backed by net.DefaultResolver unless overridden.
func New(opts ...Option) *Verifier {
	v := &Verifier{
		resolver:   net.DefaultResolver,
		timeout:    10 * time.Second,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
		txtPrefix:  DefaultTXTPrefix,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.maxRetries < 1 {
		v.maxRetries = 1
	}
	return v
}

// TXTRecordName returns the record name checked for domain under this
// verifier's prefix.
func (v *Verifier) TXTRecordName(domain string) string {
	return v.txtPrefix + "." + CleanDomain(domain)
}

// VerifyOwnership checks that domain publishes the expected token in a TXT
// record under the verifier's prefix. DNS-level failures are reported
// inside the Result; the returned error is non-nil only for invalid input
// or a canceled context.
//
// Transient failures (timeout, server failure) are retried up to the
// configured attempt count with linearly growing backoff. NXDOMAIN and
// refused answers are final and end the loop immediately.
func (v *Verifier) VerifyOwnership(ctx context.Context, domain, expectedToken string) (*Result, error) {
	if strings.TrimSpace(expectedToken) == "" {
		return nil, ErrInvalidToken
	}
	domain = CleanDomain(domain)
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}

	host := v.txtPrefix + "." + domain
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= v.maxRetries; attempt++ {
		values, err := v.lookupTXT(ctx, host)
		if err == nil {
			return ownershipResult(host, values, expectedToken, start), nil
		}
		lastErr = err

		code := Classify(err)
		v.log.DebugContext(ctx, "txt lookup failed",
			slog.String("host", host),
			slog.Int("attempt", attempt),
			slog.String("code", string(code)),
			slog.Any("error", err),
		)
		if code.Permanent() || attempt == v.maxRetries {
			break
		}
		if err := v.backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}

	code := Classify(lastErr)
	return failure(code, code.Message(), msSince(start)), nil
}

// CheckConnectivity reports whether domain resolves to any address. A
// records are tried first, then AAAA, so IPv6-only domains still pass.
func (v *Verifier) CheckConnectivity(ctx context.Context, domain string) (*Result, error) {
	domain = CleanDomain(domain)
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	start := time.Now()

	ips, err := v.lookupIP(ctx, "ip4", domain)
	recordType := "A"
	if err != nil || len(ips) == 0 {
		var err6 error
		ips, err6 = v.lookupIP(ctx, "ip6", domain)
		recordType = "AAAA"
		if err6 != nil || len(ips) == 0 {
			if err == nil {
				err = err6
			}
			code := Classify(err)
			if code == "" {
				code = CodeNotFound
			}
			return failure(code, "domain does not resolve to any address", msSince(start)), nil
		}
	}

	records := make([]Record, len(ips))
	for i, ip := range ips {
		records[i] = Record{Name: domain, Type: recordType, Value: ip.String()}
	}
	return &Result{
		Success:        true,
		Found:          true,
		Records:        records,
		ResponseTimeMS: msSince(start),
	}, nil
}

// CheckRouting reports whether domain points at the platform edge, either
// via a CNAME to the configured edge host or an A record on one of the
// edge addresses. Ownership and routing are separate gates: a domain can
// be owned but still parked elsewhere.
func (v *Verifier) CheckRouting(ctx context.Context, domain string) (*Result, error) {
	if v.routeCNAME == "" && len(v.routeIPs) == 0 {
		return nil, ErrNoRoutingTarget
	}
	domain = CleanDomain(domain)
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	start := time.Now()

	if v.routeCNAME != "" {
		cname, err := v.lookupCNAME(ctx, domain)
		if err == nil {
			cname = strings.TrimSuffix(strings.ToLower(cname), ".")
			// LookupCNAME echoes the input name when no CNAME exists.
			if cname != domain && cname == v.routeCNAME {
				return &Result{
					Success:        true,
					Found:          true,
					Records:        []Record{{Name: domain, Type: "CNAME", Value: cname}},
					ResponseTimeMS: msSince(start),
				}, nil
			}
		}
	}

	ips, err := v.lookupIP(ctx, "ip4", domain)
	if err != nil {
		code := Classify(err)
		return failure(code, code.Message(), msSince(start)), nil
	}
	var matched []Record
	for _, ip := range ips {
		if _, ok := v.routeIPs[ip.String()]; ok {
			matched = append(matched, Record{Name: domain, Type: "A", Value: ip.String()})
		}
	}
	if len(matched) > 0 {
		return &Result{
			Success:        true,
			Found:          true,
			Records:        matched,
			ResponseTimeMS: msSince(start),
		}, nil
	}
	return failure(CodeNotFound, v.routingHint(), msSince(start)), nil
}

// TokenMatches reports whether a TXT value satisfies the expected token.
// Three rules apply: exact equality, substring containment, and equality
// after stripping surrounding quotes. DNS providers disagree on whether
// values come back quoted, so the permissiveness is deliberate.
func TokenMatches(value, token string) bool {
	if value == token {
		return true
	}
	if strings.Contains(value, token) {
		return true
	}
	return strings.Trim(value, `"'`) == token
}

func ownershipResult(host string, values []string, token string, start time.Time) *Result {
	if len(values) == 0 {
		return failure(CodeNotFound, CodeNotFound.Message(), msSince(start))
	}

	records := make([]Record, len(values))
	matched := false
	for i, value := range values {
		records[i] = Record{Name: host, Type: "TXT", Value: value}
		if TokenMatches(value, token) {
			matched = true
		}
	}

	res := &Result{
		Success:        matched,
		Found:          true,
		Records:        records,
		ResponseTimeMS: msSince(start),
	}
	if !matched {
		res.Code = CodeTokenMismatch
		res.Error = CodeTokenMismatch.Message()
	}
	return res
}

func (v *Verifier) lookupTXT(ctx context.Context, host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	return v.resolver.LookupTXT(ctx, host)
}

func (v *Verifier) lookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	return v.resolver.LookupIP(ctx, network, host)
}

func (v *Verifier) lookupCNAME(ctx context.Context, host string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	return v.resolver.LookupCNAME(ctx, host)
}

// backoff waits retryDelay*attempt or returns early when ctx is done.
func (v *Verifier) backoff(ctx context.Context, attempt int) error {
	t := time.NewTimer(time.Duration(attempt) * v.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (v *Verifier) routingHint() string {
	var b strings.Builder
	b.WriteString("domain does not point to the platform")
	if v.routeCNAME != "" {
		b.WriteString("; add a CNAME record to " + v.routeCNAME)
	}
	if len(v.routeIPs) > 0 {
		ips := make([]string, 0, len(v.routeIPs))
		for ip := range v.routeIPs {
			ips = append(ips, ip)
		}
		slices.Sort(ips)
		if v.routeCNAME != "" {
			b.WriteString(" or an A record to " + strings.Join(ips, ", "))
		} else {
			b.WriteString("; add an A record to " + strings.Join(ips, ", "))
		}
	}
	return b.String()
}

func msSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
