package dnsverify_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
)

type txtReply struct {
	values []string
	err    error
}

// fakeResolver scripts TXT replies in order (the last reply repeats) and
// serves fixed IP/CNAME answers.
type fakeResolver struct {
	mu       sync.Mutex
	txt      []txtReply
	txtCalls int
	lastName string

	ip4    []net.IP
	ip4Err error
	ip6    []net.IP
	ip6Err error

	cname    string
	cnameErr error
}

func (f *fakeResolver) LookupTXT(_ context.Context, name string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txtCalls++
	f.lastName = name
	if len(f.txt) == 0 {
		return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
	}
	reply := f.txt[0]
	if len(f.txt) > 1 {
		f.txt = f.txt[1:]
	}
	return reply.values, reply.err
}

func (f *fakeResolver) LookupIP(_ context.Context, network, _ string) ([]net.IP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if network == "ip6" {
		return f.ip6, f.ip6Err
	}
	return f.ip4, f.ip4Err
}

func (f *fakeResolver) LookupCNAME(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cname, f.cnameErr
}

func (f *fakeResolver) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txtCalls
}

func newVerifier(r dnsverify.Resolver, opts ...dnsverify.Option) *dnsverify.Verifier {
	base := []dnsverify.Option{
		dnsverify.WithResolver(r),
		dnsverify.WithRetryDelay(time.Millisecond),
		dnsverify.WithTimeout(time.Second),
	}
	return dnsverify.New(append(base, opts...)...)
}

func TestVerifyOwnership(t *testing.T) {
	t.Parallel()

	const token = "verify-abc123-m1x2y3"

	t.Run("verifies a domain publishing the exact token", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{txt: []txtReply{{values: []string{token}}}}

		res, err := newVerifier(resolver).VerifyOwnership(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.True(t, res.Success)
		require.True(t, res.Found)
		require.Len(t, res.Records, 1)
		require.Equal(t, "TXT", res.Records[0].Type)
		require.Empty(t, res.Error)
	})

	t.Run("queries the prefixed record name", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{txt: []txtReply{{values: []string{token}}}}

		_, err := newVerifier(resolver).VerifyOwnership(context.Background(), "https://WWW.Example.com/", token)
		require.NoError(t, err)
		require.Equal(t, "_domainforge-verification.example.com", resolver.lastName)
	})

	t.Run("accepts quoted record values", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{txt: []txtReply{{values: []string{`"` + token + `"`}}}}

		res, err := newVerifier(resolver).VerifyOwnership(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.True(t, res.Success)
	})

	t.Run("reports a mismatch when records exist without the token", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{txt: []txtReply{{values: []string{"verify-other-record", "unrelated"}}}}

		res, err := newVerifier(resolver).VerifyOwnership(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.False(t, res.Success)
		require.True(t, res.Found)
		require.Equal(t, dnsverify.CodeTokenMismatch, res.Code)
		require.NotEmpty(t, res.Error)
		require.Len(t, res.Records, 2)
	})

	t.Run("does not retry a missing record", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{} // empty script answers NXDOMAIN

		res, err := newVerifier(resolver).VerifyOwnership(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.False(t, res.Success)
		require.False(t, res.Found)
		require.Equal(t, dnsverify.CodeNotFound, res.Code)
		require.Equal(t, 1, resolver.calls())
	})

	t.Run("retries transient failures until one succeeds", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{txt: []txtReply{
			{err: &net.DNSError{Err: "i/o timeout", IsTimeout: true}},
			{values: []string{token}},
		}}

		res, err := newVerifier(resolver).VerifyOwnership(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Equal(t, 2, resolver.calls())
	})

	t.Run("surfaces the final classification after exhausting retries", func(t *testing.T) {
		t.Parallel()
		timeoutErr := &net.DNSError{Err: "i/o timeout", IsTimeout: true}
		resolver := &fakeResolver{txt: []txtReply{{err: timeoutErr}}}

		res, err := newVerifier(resolver, dnsverify.WithMaxRetries(3)).
			VerifyOwnership(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.False(t, res.Success)
		require.Equal(t, dnsverify.CodeTimeout, res.Code)
		require.Equal(t, 3, resolver.calls())
	})

	t.Run("rejects an empty token", func(t *testing.T) {
		t.Parallel()
		_, err := newVerifier(&fakeResolver{}).VerifyOwnership(context.Background(), "example.com", "  ")
		require.ErrorIs(t, err, dnsverify.ErrInvalidToken)
	})

	t.Run("rejects an invalid domain", func(t *testing.T) {
		t.Parallel()
		_, err := newVerifier(&fakeResolver{}).VerifyOwnership(context.Background(), "not a domain", token)
		require.ErrorIs(t, err, dnsverify.ErrInvalidDomain)
	})

	t.Run("stops when the context is canceled between attempts", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{txt: []txtReply{
			{err: &net.DNSError{Err: "i/o timeout", IsTimeout: true}},
		}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newVerifier(resolver, dnsverify.WithRetryDelay(time.Minute)).
			VerifyOwnership(ctx, "example.com", token)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestTokenMatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value string
		token string
		want  bool
	}{
		{"exact", "tok", "tok", true},
		{"substring", "prefix-tok-suffix", "tok", true},
		{"double quoted", `"tok"`, "tok", true},
		{"single quoted", `'tok'`, "tok", true},
		{"different value", "other", "tok", false},
		{"empty value", "", "tok", false},
		{"partial token", "to", "tok", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, dnsverify.TokenMatches(tc.value, tc.token))
		})
	}
}

func TestCheckConnectivity(t *testing.T) {
	t.Parallel()

	t.Run("resolves over ipv4", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{ip4: []net.IP{net.ParseIP("203.0.113.10")}}

		res, err := newVerifier(resolver).CheckConnectivity(context.Background(), "example.com")
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Equal(t, "A", res.Records[0].Type)
		require.Equal(t, "203.0.113.10", res.Records[0].Value)
	})

	t.Run("falls back to ipv6", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{
			ip4Err: &net.DNSError{Err: "no such host", IsNotFound: true},
			ip6:    []net.IP{net.ParseIP("2001:db8::1")},
		}

		res, err := newVerifier(resolver).CheckConnectivity(context.Background(), "example.com")
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Equal(t, "AAAA", res.Records[0].Type)
	})

	t.Run("reports unresolvable domains", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{
			ip4Err: &net.DNSError{Err: "no such host", IsNotFound: true},
			ip6Err: &net.DNSError{Err: "no such host", IsNotFound: true},
		}

		res, err := newVerifier(resolver).CheckConnectivity(context.Background(), "example.com")
		require.NoError(t, err)
		require.False(t, res.Success)
		require.Contains(t, res.Error, "does not resolve")
	})
}

func TestCheckRouting(t *testing.T) {
	t.Parallel()

	target := dnsverify.WithRoutingTarget("edge.domainforge.app", "198.51.100.7")

	t.Run("accepts a cname pointed at the edge", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{cname: "edge.domainforge.app."}

		res, err := newVerifier(resolver, target).CheckRouting(context.Background(), "example.com")
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Equal(t, "CNAME", res.Records[0].Type)
	})

	t.Run("accepts an A record on an edge address", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{
			cname: "example.com.", // no CNAME configured, lookup echoes the name
			ip4:   []net.IP{net.ParseIP("198.51.100.7")},
		}

		res, err := newVerifier(resolver, target).CheckRouting(context.Background(), "example.com")
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Equal(t, "A", res.Records[0].Type)
	})

	t.Run("rejects a domain parked elsewhere", func(t *testing.T) {
		t.Parallel()
		resolver := &fakeResolver{
			cname: "parking.example.net.",
			ip4:   []net.IP{net.ParseIP("192.0.2.1")},
		}

		res, err := newVerifier(resolver, target).CheckRouting(context.Background(), "example.com")
		require.NoError(t, err)
		require.False(t, res.Success)
		require.Contains(t, res.Error, "does not point to the platform")
	})

	t.Run("requires a configured target", func(t *testing.T) {
		t.Parallel()
		_, err := newVerifier(&fakeResolver{}).CheckRouting(context.Background(), "example.com")
		require.ErrorIs(t, err, dnsverify.ErrNoRoutingTarget)
	})
}
