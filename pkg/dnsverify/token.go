package dnsverify

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"
)

// DefaultTXTPrefix is the DNS label under which verification records are
// published, i.e. the TXT record lives at "<prefix>.<domain>".
const DefaultTXTPrefix = "_domainforge-verification"

var tokenPattern = regexp.MustCompile(`^verify-[0-9a-z]+-[0-9a-z]+$`)

// GenerateToken produces a verification token of the form
// "verify-<random base36>-<timestamp base36>". Tokens are published in
// public DNS, so they carry no secrecy requirement; the random part only
// guards against collisions between concurrent configuration flows.
func GenerateToken() string {
	return "verify-" +
		strconv.FormatUint(rand.Uint64(), 36) + "-" +
		strconv.FormatInt(time.Now().UnixMilli(), 36)
}

// IsValidToken reports whether s matches the token format produced by
// GenerateToken.
func IsValidToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// TXTRecordName returns the fully qualified name of the verification TXT
// record for domain under DefaultTXTPrefix. Verifiers configured with a
// custom prefix expose their own method of the same name.
func TXTRecordName(domain string) string {
	return DefaultTXTPrefix + "." + CleanDomain(domain)
}
