package dnsverify_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
)

func TestCleanDomain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "example.com", "example.com"},
		{"uppercase", "EXAMPLE.COM", "example.com"},
		{"surrounding whitespace", "  example.com  ", "example.com"},
		{"https scheme", "https://example.com", "example.com"},
		{"http scheme", "http://example.com", "example.com"},
		{"leading www", "www.example.com", "example.com"},
		{"scheme and www", "https://www.example.com", "example.com"},
		{"trailing slash", "example.com/", "example.com"},
		{"path", "example.com/some/page", "example.com"},
		{"port", "example.com:8080", "example.com"},
		{"trailing dot", "example.com.", "example.com"},
		{"everything at once", " HTTPS://WWW.Example.COM:443/path/ ", "example.com"},
		{"subdomain kept", "shop.example.com", "shop.example.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, dnsverify.CleanDomain(tc.input))
		})
	}

	t.Run("cleaning is idempotent", func(t *testing.T) {
		t.Parallel()
		for _, tc := range cases {
			once := dnsverify.CleanDomain(tc.input)
			require.Equal(t, once, dnsverify.CleanDomain(once), "input %q", tc.input)
		}
	})
}

func TestValidateDomain(t *testing.T) {
	t.Parallel()

	t.Run("accepts well-formed domains", func(t *testing.T) {
		t.Parallel()
		for _, domain := range []string{
			"example.com",
			"our-wedding.com",
			"shop.example.co.uk",
			"xn--bcher-kva.example",
			"a.bc",
		} {
			require.NoError(t, dnsverify.ValidateDomain(domain), domain)
		}
	})

	t.Run("rejects malformed domains", func(t *testing.T) {
		t.Parallel()
		for name, domain := range map[string]string{
			"empty":              "",
			"no dot":             "localhost",
			"wildcard":           "*.example.com",
			"empty label":        "example..com",
			"leading hyphen":     "-bad.example.com",
			"trailing hyphen":    "bad-.example.com",
			"invalid characters": "exa_mple.com",
			"label too long":     strings.Repeat("a", 64) + ".com",
			"total too long":     strings.Repeat("abcdefghij.", 25) + "com",
		} {
			err := dnsverify.ValidateDomain(domain)
			require.ErrorIs(t, err, dnsverify.ErrInvalidDomain, name)
		}
	})
}
