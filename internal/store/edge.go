package store

import (
	"context"
	"errors"

	"github.com/dmitrymomot/domainforge/pkg/edge"
)

// EdgeStore adapts Store to the narrow lookup surface the edge router
// consumes, translating identifiers and sentinel errors between the two
// packages.
type EdgeStore struct {
	store Store
}

var _ edge.Store = (*EdgeStore)(nil)

// NewEdgeStore wraps s for use by the edge router.
func NewEdgeStore(s Store) *EdgeStore {
	return &EdgeStore{store: s}
}

// FindByHostname resolves a custom domain to its published project.
func (e *EdgeStore) FindByHostname(ctx context.Context, hostname string) (edge.HostnameMatch, error) {
	hp, err := e.store.FindByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return edge.HostnameMatch{}, edge.ErrNotFound
		}
		return edge.HostnameMatch{}, err
	}
	return edge.HostnameMatch{
		RecordID:  hp.Record.ID.String(),
		Subdomain: hp.Subdomain,
		Published: hp.Published,
	}, nil
}

// FindRedirectTarget resolves a platform subdomain to its redirect state.
func (e *EdgeStore) FindRedirectTarget(ctx context.Context, subdomain string) (edge.RedirectTarget, error) {
	target, err := e.store.FindRedirectTarget(ctx, subdomain)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return edge.RedirectTarget{}, edge.ErrNotFound
		}
		return edge.RedirectTarget{}, err
	}
	return edge.RedirectTarget{
		CustomDomain:   target.CustomDomain,
		ShouldRedirect: target.ShouldRedirect,
	}, nil
}
