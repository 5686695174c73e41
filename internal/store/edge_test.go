package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/pkg/edge"
)

// fakeLookups implements the two lookup methods the edge adapter uses;
// the embedded interface panics on anything else.
type fakeLookups struct {
	store.Store

	hostname    *store.HostnameProject
	hostnameErr error
	target      store.RedirectTarget
	targetErr   error
}

func (f *fakeLookups) FindByHostname(context.Context, string) (*store.HostnameProject, error) {
	if f.hostnameErr != nil {
		return nil, f.hostnameErr
	}
	return f.hostname, nil
}

func (f *fakeLookups) FindRedirectTarget(context.Context, string) (store.RedirectTarget, error) {
	if f.targetErr != nil {
		return store.RedirectTarget{}, f.targetErr
	}
	return f.target, nil
}

func TestEdgeStoreFindByHostname(t *testing.T) {
	t.Parallel()

	t.Run("maps the record and project fields", func(t *testing.T) {
		t.Parallel()
		recordID := uuid.New()
		adapter := store.NewEdgeStore(&fakeLookups{
			hostname: &store.HostnameProject{
				Record:    store.DomainRecord{ID: recordID, CustomDomain: "ourwedding.com"},
				Subdomain: "john-jane-2024",
				Published: true,
			},
		})

		match, err := adapter.FindByHostname(context.Background(), "ourwedding.com")
		require.NoError(t, err)
		require.Equal(t, recordID.String(), match.RecordID)
		require.Equal(t, "john-jane-2024", match.Subdomain)
		require.True(t, match.Published)
	})

	t.Run("translates the not-found sentinel", func(t *testing.T) {
		t.Parallel()
		adapter := store.NewEdgeStore(&fakeLookups{hostnameErr: store.ErrNotFound})

		_, err := adapter.FindByHostname(context.Background(), "nobody.example")
		require.ErrorIs(t, err, edge.ErrNotFound)
	})

	t.Run("passes other failures through", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection reset")
		adapter := store.NewEdgeStore(&fakeLookups{hostnameErr: boom})

		_, err := adapter.FindByHostname(context.Background(), "ourwedding.com")
		require.ErrorIs(t, err, boom)
		require.NotErrorIs(t, err, edge.ErrNotFound)
	})
}

func TestEdgeStoreFindRedirectTarget(t *testing.T) {
	t.Parallel()

	t.Run("maps the redirect state", func(t *testing.T) {
		t.Parallel()
		adapter := store.NewEdgeStore(&fakeLookups{
			target: store.RedirectTarget{CustomDomain: "ourwedding.com", ShouldRedirect: true},
		})

		target, err := adapter.FindRedirectTarget(context.Background(), "john-jane-2024")
		require.NoError(t, err)
		require.Equal(t, "ourwedding.com", target.CustomDomain)
		require.True(t, target.ShouldRedirect)
	})

	t.Run("keeps the zero value cacheable", func(t *testing.T) {
		t.Parallel()
		adapter := store.NewEdgeStore(&fakeLookups{})

		target, err := adapter.FindRedirectTarget(context.Background(), "plain-site")
		require.NoError(t, err)
		require.Zero(t, target)
	})

	t.Run("translates the not-found sentinel", func(t *testing.T) {
		t.Parallel()
		adapter := store.NewEdgeStore(&fakeLookups{targetErr: store.ErrNotFound})

		_, err := adapter.FindRedirectTarget(context.Background(), "nobody-here")
		require.ErrorIs(t, err, edge.ErrNotFound)
	})
}
