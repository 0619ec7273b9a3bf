package driving

import (
	"context"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
)

// DocumentCache is the load-or-compute decision surface over the artifact
// store. Producers check Has* before recomputing; consumers load persisted
// artifacts directly on a cache hit.
//
// Load operations report corruption as domain.ErrCorrupted after
// invalidating the damaged artifact; callers treat domain.ErrNotFound and
// domain.ErrCorrupted alike as a cache miss and recompute. Invalid input
// (domain.ErrInvalidArtifact, domain.ErrChunksRequired) is a caller bug
// and is never retried.
type DocumentCache interface {
	// HasChunks reports whether a committed chunk set exists.
	HasChunks(ctx context.Context, identity string) bool

	// HasVector reports whether a committed vector artifact exists.
	HasVector(ctx context.Context, identity string) bool

	// HasSummary reports whether a committed summary artifact exists.
	HasSummary(ctx context.Context, identity string) bool

	// LoadChunks returns the stored chunk set, order preserved.
	LoadChunks(ctx context.Context, identity string) ([]domain.Chunk, error)

	// SaveChunks persists a non-empty chunk set and commits its metadata.
	// sourceChecksum is the optional SHA-256 of the source document.
	SaveChunks(ctx context.Context, identity string, chunks []domain.Chunk, sourceChecksum string) error

	// LoadVector returns the opaque vector artifact payload.
	LoadVector(ctx context.Context, identity string) ([]byte, error)

	// SaveVector persists an opaque vector artifact. The chunk set for the
	// identity must exist at call time; builtFrom records the unit count
	// the artifact was built from.
	SaveVector(ctx context.Context, identity string, payload []byte, builtFrom int) error

	// LoadSummary returns the opaque summary artifact payload.
	LoadSummary(ctx context.Context, identity string) ([]byte, error)

	// SaveSummary persists an opaque summary artifact. Same contract as
	// SaveVector.
	SaveSummary(ctx context.Context, identity string, payload []byte, builtFrom int) error

	// Metadata returns the metadata record for an identity.
	Metadata(ctx context.Context, identity string) (*domain.DocumentMetadata, error)

	// Invalidate removes one artifact kind and its metadata entry.
	Invalidate(ctx context.Context, identity string, kind domain.ArtifactKind) error

	// Purge removes every artifact kind and the metadata record.
	// Idempotent; the chunks identity marker is removed last.
	Purge(ctx context.Context, identity string) error
}

// CacheAdmin is the operator-facing maintenance surface.
// It never swallows errors; it is a diagnostic surface.
type CacheAdmin interface {
	// ListDocuments returns all known identities in lexicographic order.
	ListDocuments(ctx context.Context) ([]string, error)

	// Describe returns the metadata record for an identity.
	// Returns domain.ErrNotFound for an unknown identity.
	Describe(ctx context.Context, identity string) (*domain.DocumentMetadata, error)

	// Purge removes a document's full artifact set. Idempotent.
	Purge(ctx context.Context, identity string) error
}
