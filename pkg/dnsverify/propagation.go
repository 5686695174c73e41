package dnsverify

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
)

// DefaultResolvers are the public resolvers probed by the propagation
// checker: Google, Cloudflare, Quad9 and OpenDNS.
var DefaultResolvers = []string{
	"8.8.8.8:53",
	"1.1.1.1:53",
	"9.9.9.9:53",
	"208.67.222.222:53",
}

// PropagationStatus summarizes how widely the verification record is
// visible across public resolvers. The remaining-time figure is an
// estimate derived from the fraction of resolvers still missing the
// record, not a measurement.
type PropagationStatus struct {
	Propagated                    bool `json:"propagated"`
	ServersChecked                int  `json:"servers_checked"`
	ServersFound                  int  `json:"servers_found"`
	EstimatedTimeRemainingMinutes int  `json:"estimated_time_remaining_minutes"`
}

// ExchangeFunc sends a DNS query to addr and returns the response.
type ExchangeFunc func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, error)

// PropagationChecker asks a fixed set of public resolvers whether they
// already serve the verification TXT record. Unlike Verifier it queries
// each resolver directly instead of going through the host's stub
// resolver, so per-resolver visibility is real.
type PropagationChecker struct {
	servers   []string
	txtPrefix string
	timeout   time.Duration
	exchange  ExchangeFunc
	log       *slog.Logger
}

// NewPropagationChecker returns a checker probing DefaultResolvers unless
// configured otherwise.
func NewPropagationChecker(opts ...PropagationOption) *PropagationChecker {
	c := &PropagationChecker{
		servers:   DefaultResolvers,
		txtPrefix: DefaultTXTPrefix,
		timeout:   5 * time.Second,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.exchange == nil {
		client := &dns.Client{Timeout: c.timeout}
		c.exchange = func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, error) {
			resp, _, err := client.ExchangeContext(ctx, msg, addr)
			return resp, err
		}
	}
	return c
}

// Check queries every configured resolver in parallel and reports how many
// already serve a TXT record matching token. Probe failures count as not
// yet propagated; the returned error covers invalid input only.
func (c *PropagationChecker) Check(ctx context.Context, domain, token string) (*PropagationStatus, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	domain = CleanDomain(domain)
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}

	question := dns.Fqdn(c.txtPrefix + "." + domain)

	var found atomic.Int64
	g := new(errgroup.Group)
	for _, server := range c.servers {
		g.Go(func() error {
			msg := new(dns.Msg)
			msg.SetQuestion(question, dns.TypeTXT)
			resp, err := c.exchange(ctx, msg, server)
			if err != nil {
				c.log.DebugContext(ctx, "propagation probe failed",
					slog.String("server", server),
					slog.Any("error", err),
				)
				return nil
			}
			for _, ans := range resp.Answer {
				txt, ok := ans.(*dns.TXT)
				if !ok {
					continue
				}
				if TokenMatches(strings.Join(txt.Txt, ""), token) {
					found.Add(1)
					return nil
				}
			}
			return nil
		})
	}
	_ = g.Wait() // probes swallow their own errors

	checked := len(c.servers)
	got := int(found.Load())
	status := &PropagationStatus{
		Propagated:     checked > 0 && got == checked,
		ServersChecked: checked,
		ServersFound:   got,
	}
	if !status.Propagated {
		status.EstimatedTimeRemainingMinutes = estimateRemaining(got, checked)
	}
	return status, nil
}

// estimateRemaining maps the fraction of resolvers still missing the
// record onto a 30 minute horizon, floored at 5 minutes once at least one
// resolver serves it.
func estimateRemaining(found, checked int) int {
	if checked == 0 {
		return 0
	}
	missing := checked - found
	minutes := int(math.Ceil(float64(missing) / float64(checked) * 30))
	if found > 0 && minutes < 5 {
		minutes = 5
	}
	return minutes
}

// PropagationOption configures a PropagationChecker.
type PropagationOption func(*PropagationChecker)

// WithPropagationServers replaces the probed resolver set. Addresses are
// host:port.
// Default: DefaultResolvers.
func WithPropagationServers(servers ...string) PropagationOption {
	return func(c *PropagationChecker) {
		c.servers = servers
	}
}

// WithPropagationTimeout sets the per-probe timeout.
// Default: 5 seconds.
func WithPropagationTimeout(d time.Duration) PropagationOption {
	return func(c *PropagationChecker) {
		c.timeout = d
	}
}

// WithPropagationTXTPrefix overrides the label the record is expected
// under.
// Default: DefaultTXTPrefix.
func WithPropagationTXTPrefix(prefix string) PropagationOption {
	return func(c *PropagationChecker) {
		c.txtPrefix = prefix
	}
}

// WithExchangeFunc replaces the DNS exchange, typically a fake in tests.
func WithExchangeFunc(fn ExchangeFunc) PropagationOption {
	return func(c *PropagationChecker) {
		c.exchange = fn
	}
}

// WithPropagationLogger attaches a logger for probe diagnostics.
// Default: discard.
func WithPropagationLogger(log *slog.Logger) PropagationOption {
	return func(c *PropagationChecker) {
		c.log = log
	}
}
