package dnsverify_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
)

func txtAnswer(t *testing.T, question, value string) *dns.Msg {
	t.Helper()
	rr, err := dns.NewRR(fmt.Sprintf("%s 300 IN TXT %q", question, value))
	require.NoError(t, err)
	msg := new(dns.Msg)
	msg.Answer = append(msg.Answer, rr)
	return msg
}

// fakeExchange answers per resolver address; unlisted addresses fail.
func fakeExchange(answers map[string]*dns.Msg) dnsverify.ExchangeFunc {
	return func(_ context.Context, msg *dns.Msg, addr string) (*dns.Msg, error) {
		resp, ok := answers[addr]
		if !ok {
			return nil, errors.New("connection refused")
		}
		out := new(dns.Msg)
		out.SetReply(msg)
		out.Answer = resp.Answer
		return out, nil
	}
}

func TestPropagationCheck(t *testing.T) {
	t.Parallel()

	const (
		token    = "verify-abc123-m1x2y3"
		question = "_domainforge-verification.example.com."
	)

	t.Run("reports full propagation", func(t *testing.T) {
		t.Parallel()
		answer := txtAnswer(t, question, token)
		checker := dnsverify.NewPropagationChecker(
			dnsverify.WithPropagationServers("10.0.0.1:53", "10.0.0.2:53"),
			dnsverify.WithExchangeFunc(fakeExchange(map[string]*dns.Msg{
				"10.0.0.1:53": answer,
				"10.0.0.2:53": answer,
			})),
		)

		status, err := checker.Check(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.True(t, status.Propagated)
		require.Equal(t, 2, status.ServersChecked)
		require.Equal(t, 2, status.ServersFound)
		require.Zero(t, status.EstimatedTimeRemainingMinutes)
	})

	t.Run("estimates remaining time when partially propagated", func(t *testing.T) {
		t.Parallel()
		checker := dnsverify.NewPropagationChecker(
			dnsverify.WithPropagationServers("10.0.0.1:53", "10.0.0.2:53"),
			dnsverify.WithExchangeFunc(fakeExchange(map[string]*dns.Msg{
				"10.0.0.1:53": txtAnswer(t, question, token),
				"10.0.0.2:53": new(dns.Msg), // resolver answers, record absent
			})),
		)

		status, err := checker.Check(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.False(t, status.Propagated)
		require.Equal(t, 1, status.ServersFound)
		require.Equal(t, 15, status.EstimatedTimeRemainingMinutes)
	})

	t.Run("counts probe failures as missing", func(t *testing.T) {
		t.Parallel()
		checker := dnsverify.NewPropagationChecker(
			dnsverify.WithPropagationServers("10.0.0.1:53", "10.0.0.2:53"),
			dnsverify.WithExchangeFunc(fakeExchange(map[string]*dns.Msg{
				"10.0.0.1:53": txtAnswer(t, question, token),
			})),
		)

		status, err := checker.Check(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.False(t, status.Propagated)
		require.Equal(t, 2, status.ServersChecked)
		require.Equal(t, 1, status.ServersFound)
	})

	t.Run("nothing propagated yet uses the full horizon", func(t *testing.T) {
		t.Parallel()
		checker := dnsverify.NewPropagationChecker(
			dnsverify.WithPropagationServers("10.0.0.1:53", "10.0.0.2:53"),
			dnsverify.WithExchangeFunc(fakeExchange(nil)),
		)

		status, err := checker.Check(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.Zero(t, status.ServersFound)
		require.Equal(t, 30, status.EstimatedTimeRemainingMinutes)
	})

	t.Run("mostly propagated floors the estimate", func(t *testing.T) {
		t.Parallel()
		answer := txtAnswer(t, question, token)
		checker := dnsverify.NewPropagationChecker(
			dnsverify.WithPropagationServers("10.0.0.1:53", "10.0.0.2:53", "10.0.0.3:53", "10.0.0.4:53", "10.0.0.5:53",
				"10.0.0.6:53", "10.0.0.7:53", "10.0.0.8:53", "10.0.0.9:53", "10.0.0.10:53"),
			dnsverify.WithExchangeFunc(fakeExchange(map[string]*dns.Msg{
				"10.0.0.1:53": answer, "10.0.0.2:53": answer, "10.0.0.3:53": answer,
				"10.0.0.4:53": answer, "10.0.0.5:53": answer, "10.0.0.6:53": answer,
				"10.0.0.7:53": answer, "10.0.0.8:53": answer, "10.0.0.9:53": answer,
			})),
		)

		status, err := checker.Check(context.Background(), "example.com", token)
		require.NoError(t, err)
		require.Equal(t, 9, status.ServersFound)
		require.Equal(t, 5, status.EstimatedTimeRemainingMinutes)
	})

	t.Run("rejects an empty token", func(t *testing.T) {
		t.Parallel()
		checker := dnsverify.NewPropagationChecker(
			dnsverify.WithExchangeFunc(fakeExchange(nil)),
		)
		_, err := checker.Check(context.Background(), "example.com", "")
		require.ErrorIs(t, err, dnsverify.ErrInvalidToken)
	})
}
