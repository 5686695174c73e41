package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/domainforge/internal/handler"
	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/internal/verify"
	"github.com/dmitrymomot/domainforge/pkg/dnsverify"
	"github.com/dmitrymomot/domainforge/pkg/health"
)

// domainsStub satisfies handler.Domains with per-call hooks. Tests set
// only the hooks their route exercises; an unexpected call panics on
// the nil hook and fails the test loudly.
type domainsStub struct {
	configureFn   func(projectID uuid.UUID, domain string) (*store.DomainRecord, *verify.Instructions, error)
	getFn         func(recordID uuid.UUID) (*store.DomainRecord, error)
	verifyFn      func(recordID uuid.UUID, force bool) (*verify.Outcome, error)
	reconfigureFn func(recordID uuid.UUID) (*store.DomainRecord, *verify.Instructions, error)
	removeFn      func(recordID uuid.UUID) error
}

func (s *domainsStub) Configure(_ context.Context, projectID uuid.UUID, domain string) (*store.DomainRecord, *verify.Instructions, error) {
	return s.configureFn(projectID, domain)
}

func (s *domainsStub) Get(_ context.Context, recordID uuid.UUID) (*store.DomainRecord, error) {
	return s.getFn(recordID)
}

func (s *domainsStub) Verify(_ context.Context, recordID uuid.UUID, force bool) (*verify.Outcome, error) {
	return s.verifyFn(recordID, force)
}

func (s *domainsStub) Reconfigure(_ context.Context, recordID uuid.UUID) (*store.DomainRecord, *verify.Instructions, error) {
	return s.reconfigureFn(recordID)
}

func (s *domainsStub) Remove(_ context.Context, recordID uuid.UUID) error {
	return s.removeFn(recordID)
}

type checkerStub struct {
	ownershipFn    func(domain, token string) (*dnsverify.Result, error)
	connectivityFn func(domain string) (*dnsverify.Result, error)
	routingFn      func(domain string) (*dnsverify.Result, error)
}

func (s *checkerStub) VerifyOwnership(_ context.Context, domain, expectedToken string) (*dnsverify.Result, error) {
	return s.ownershipFn(domain, expectedToken)
}

func (s *checkerStub) CheckConnectivity(_ context.Context, domain string) (*dnsverify.Result, error) {
	return s.connectivityFn(domain)
}

func (s *checkerStub) CheckRouting(_ context.Context, domain string) (*dnsverify.Result, error) {
	return s.routingFn(domain)
}

type propagationStub struct {
	checkFn func(domain, token string) (*dnsverify.PropagationStatus, error)
}

func (s *propagationStub) Check(_ context.Context, domain, token string) (*dnsverify.PropagationStatus, error) {
	return s.checkFn(domain, token)
}

func newAPI(t *testing.T, domains handler.Domains, checker handler.Checker, propagation handler.Propagation, opts ...handler.Option) http.Handler {
	t.Helper()
	return handler.New(domains, checker, propagation, opts...).Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody[map[string]string](t, rec)
	return body["error"]
}

func TestProbes(t *testing.T) {
	t.Parallel()

	t.Run("liveness always reports ok", func(t *testing.T) {
		t.Parallel()

		api := newAPI(t, nil, nil, nil)
		rec := do(t, api, http.MethodGet, "/healthz", "")

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readiness passes with no checks configured", func(t *testing.T) {
		t.Parallel()

		api := newAPI(t, nil, nil, nil)
		rec := do(t, api, http.MethodGet, "/readyz", "")

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readiness fails when a dependency check fails", func(t *testing.T) {
		t.Parallel()

		checks := health.Checks{
			"db": func(_ context.Context) error { return errors.New("connection refused") },
		}
		api := newAPI(t, nil, nil, nil, handler.WithReadyChecks(checks))
		rec := do(t, api, http.MethodGet, "/readyz", "")

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	api := newAPI(t, nil, nil, nil)
	rec := do(t, api, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "# HELP")
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	t.Parallel()

	domains := &domainsStub{
		getFn: func(uuid.UUID) (*store.DomainRecord, error) {
			return nil, errors.New("pg: connection reset by peer")
		},
	}
	api := newAPI(t, domains, nil, nil)
	rec := do(t, api, http.MethodGet, "/v1/domains/"+uuid.NewString(), "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "internal error", errorMessage(t, rec))
	require.NotContains(t, rec.Body.String(), "pg:")
}
