// Package dnsverify provides DNS-based ownership verification for custom
// domains.
//
// A domain owner proves control by publishing a generated token in a TXT
// record under a well-known label. The package covers the full flow:
// token generation, domain normalization and validation, the TXT lookup
// with retries and timeouts, connectivity and routing checks, and a
// propagation probe across public resolvers.
//
// # Verifying Ownership
//
//	verifier := dnsverify.New(
//		dnsverify.WithTimeout(10*time.Second),
//		dnsverify.WithMaxRetries(3),
//	)
//
//	token := dnsverify.GenerateToken()
//	// Owner publishes: _domainforge-verification.example.com TXT "<token>"
//
//	res, err := verifier.VerifyOwnership(ctx, "example.com", token)
//	if err != nil {
//		// invalid input or canceled context
//	}
//	if res.Success {
//		// domain is verified
//	}
//
// # Failure Reporting
//
// DNS-level failures never surface as Go errors. VerifyOwnership returns
// an error only for invalid input or a canceled context; everything the
// network does wrong lands in the Result with Success=false, a Code from
// the fixed classification set and a user-safe message:
//
//   - CodeNotFound: NXDOMAIN or no TXT records
//   - CodeTimeout: per-attempt deadline exceeded
//   - CodeServerFailure: SERVFAIL-class answer
//   - CodeRefused: query refused by the nameserver
//   - CodeTokenMismatch: records exist, none carries the token
//   - CodeLookupFailed: anything else
//
// Transient codes are retried with linearly growing backoff; NXDOMAIN and
// refused answers end the retry loop immediately.
//
// # Token Matching
//
// A TXT value matches the expected token when it is equal, contains it as
// a substring, or equals it after stripping surrounding quotes. Providers
// disagree on quoting, so the three-rule predicate is intentional and
// must not be tightened to exact match.
//
// # Propagation
//
// PropagationChecker bypasses the host's stub resolver and asks a set of
// public resolvers (Google, Cloudflare, Quad9, OpenDNS by default)
// directly whether they serve the record yet, returning counts and a
// coarse time-remaining estimate for UI display.
package dnsverify
