package dnsverify

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Code classifies a verification failure into a stable category. UI layers
// key off Code rather than parsing Error strings.
type Code string

const (
	// CodeNotFound covers NXDOMAIN and empty answers.
	CodeNotFound Code = "not_found"
	// CodeTimeout covers per-attempt deadline hits.
	CodeTimeout Code = "timeout"
	// CodeServerFailure covers SERVFAIL-class answers.
	CodeServerFailure Code = "server_failure"
	// CodeRefused covers REFUSED answers.
	CodeRefused Code = "refused"
	// CodeTokenMismatch means records exist but none carries the token.
	CodeTokenMismatch Code = "token_mismatch"
	// CodeLookupFailed is the generic catch-all for resolver errors.
	CodeLookupFailed Code = "lookup_failed"
)

var codeMessages = map[Code]string{
	CodeNotFound:      "no verification record found; the TXT record may not exist yet or DNS changes are still propagating",
	CodeTimeout:       "DNS lookup timed out; please try again in a moment",
	CodeServerFailure: "the domain's DNS server failed to respond; please try again later",
	CodeRefused:       "the domain's DNS server refused the query; check the nameserver configuration",
	CodeTokenMismatch: "a verification record was found but it does not contain the expected token",
	CodeLookupFailed:  "DNS lookup failed; check the domain and try again",
}

// Message returns the user-safe message for the code. This copy is part of
// the package contract; callers surface it verbatim to domain owners.
func (c Code) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return codeMessages[CodeLookupFailed]
}

// Permanent reports whether retrying the lookup cannot change the answer.
// Permanent codes short-circuit the verifier's retry loop and drive the
// demotion decision during periodic re-verification; token mismatches are
// permanent for a single check but fixable by the domain owner.
func (c Code) Permanent() bool {
	return c == CodeNotFound || c == CodeRefused || c == CodeTokenMismatch
}

// Classify maps a raw resolver error to its Code. Unknown errors fall back
// to CodeLookupFailed.
func Classify(err error) Code {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		detail := strings.ToLower(dnsErr.Err)
		switch {
		case dnsErr.IsNotFound:
			return CodeNotFound
		case dnsErr.IsTimeout:
			return CodeTimeout
		case strings.Contains(detail, "refused"):
			return CodeRefused
		case dnsErr.IsTemporary || strings.Contains(detail, "misbehaving"):
			return CodeServerFailure
		}
		return CodeLookupFailed
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}
	return CodeLookupFailed
}
