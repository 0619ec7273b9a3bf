package services

import (
	"context"
	"sort"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driving"
)

// Ensure Admin implements the interface.
var _ driving.CacheAdmin = (*Admin)(nil)

// Admin is the operator-facing maintenance surface over the cache.
// It aggregates; it holds no consistency logic of its own, and it never
// swallows errors.
type Admin struct {
	store driven.ArtifactStore
	cache driving.DocumentCache
}

// NewAdmin creates a cache admin service.
func NewAdmin(store driven.ArtifactStore, cache driving.DocumentCache) *Admin {
	return &Admin{
		store: store,
		cache: cache,
	}
}

// ListDocuments returns all known identities in lexicographic order.
// Ordering is stable so repeated runs produce reproducible output.
func (a *Admin) ListDocuments(ctx context.Context) ([]string, error) {
	identities, err := a.store.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(identities)
	return identities, nil
}

// Describe returns the metadata record for an identity.
// Returns domain.ErrNotFound for an unknown identity.
func (a *Admin) Describe(ctx context.Context, identity string) (*domain.DocumentMetadata, error) {
	return a.cache.Metadata(ctx, identity)
}

// Purge removes a document's full artifact set. Idempotent.
func (a *Admin) Purge(ctx context.Context, identity string) error {
	return a.cache.Purge(ctx, identity)
}
