package dnsverify

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidDomain is returned when a domain fails validation. The wrapped
// message names the rule that failed.
var ErrInvalidDomain = errors.New("dnsverify: invalid domain")

var labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// CleanDomain normalizes user-supplied domain input into a bare lowercase
// hostname: scheme, path, port, a single leading "www." and the trailing
// dot are stripped. Cleaning an already-clean domain is a no-op.
func CleanDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))

	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")

	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}

	d = strings.TrimPrefix(d, "www.")

	// Strip :port, leaving IPv6 literals alone.
	if i := strings.LastIndexByte(d, ':'); i >= 0 && !strings.Contains(d, "]") {
		d = d[:i]
	}

	return strings.TrimSuffix(d, ".")
}

// ValidateDomain reports whether domain is an acceptable custom domain.
// It expects already-cleaned input (see CleanDomain) and returns
// ErrInvalidDomain wrapped with the failing rule otherwise.
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("%w: domain is required", ErrInvalidDomain)
	}
	if strings.Contains(domain, "*") {
		return fmt.Errorf("%w: wildcard domains are not supported", ErrInvalidDomain)
	}
	if len(domain) > 253 {
		return fmt.Errorf("%w: domain exceeds 253 characters", ErrInvalidDomain)
	}
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("%w: domain must include a dot, e.g. example.com", ErrInvalidDomain)
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return fmt.Errorf("%w: empty label in %q", ErrInvalidDomain, domain)
		}
		if !labelPattern.MatchString(label) {
			return fmt.Errorf("%w: label %q contains invalid characters", ErrInvalidDomain, label)
		}
	}
	return nil
}
