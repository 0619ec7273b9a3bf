package driven

import (
	"context"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
)

// ArtifactStore persists opaque artifact payloads keyed by document identity
// and artifact kind. It has no knowledge of documents or processing
// semantics; consistency between artifact kinds is owned by the cache
// service layered on top.
//
// Writes are atomic: a concurrent or subsequent Exists check never observes
// a half-written payload. Implementations frame every payload in a
// checksummed envelope so Read can distinguish damage from absence.
type ArtifactStore interface {
	// Exists reports whether a fully written payload is present.
	// It never errors; any unreadable or partial state reads as false.
	Exists(ctx context.Context, identity string, kind domain.ArtifactKind) bool

	// Write persists the payload, replacing any prior payload for the key.
	Write(ctx context.Context, identity string, kind domain.ArtifactKind, payload []byte) error

	// Read returns the payload for the key.
	// Returns domain.ErrNotFound if absent, domain.ErrCorrupted if the
	// stored payload fails envelope verification.
	Read(ctx context.Context, identity string, kind domain.ArtifactKind) ([]byte, error)

	// Delete removes the payload. Deleting an absent key is not an error.
	Delete(ctx context.Context, identity string, kind domain.ArtifactKind) error

	// ListIdentities returns the identities known to the store, derived
	// from the chunks namespace only: a document counts as known once its
	// chunk set exists.
	ListIdentities(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
