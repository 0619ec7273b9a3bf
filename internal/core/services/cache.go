package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driving"
	"github.com/gridwise-labs/regtrack/internal/logger"
)

// Ensure Cache implements the interface.
var _ driving.DocumentCache = (*Cache)(nil)

// Cache is the load-or-compute decision layer over the artifact store.
// It owns the consistency invariants between artifact kinds: the metadata
// write is the commit point for every save, an index artifact must be
// traceable to a chunk generation, and corruption degrades a single
// artifact kind, never the whole document.
type Cache struct {
	store driven.ArtifactStore
	now   func() time.Time
}

// NewCache creates a document cache over the given artifact store.
func NewCache(store driven.ArtifactStore) *Cache {
	return &Cache{
		store: store,
		now:   time.Now,
	}
}

// HasChunks reports whether a committed chunk set exists.
func (c *Cache) HasChunks(ctx context.Context, identity string) bool {
	return c.has(ctx, identity, domain.KindChunks)
}

// HasVector reports whether a committed vector artifact exists.
func (c *Cache) HasVector(ctx context.Context, identity string) bool {
	return c.has(ctx, identity, domain.KindVector)
}

// HasSummary reports whether a committed summary artifact exists.
func (c *Cache) HasSummary(ctx context.Context, identity string) bool {
	return c.has(ctx, identity, domain.KindSummary)
}

// has reports whether both the payload and its metadata entry exist.
// A payload without a metadata entry is an uncommitted save and reads
// as absent.
func (c *Cache) has(ctx context.Context, identity string, kind domain.ArtifactKind) bool {
	if !c.store.Exists(ctx, identity, kind) {
		return false
	}
	meta, err := c.readMetadata(ctx, identity)
	if err != nil {
		return false
	}
	return meta.Has(kind)
}

// LoadChunks returns the stored chunk set, order preserved.
// A corrupted chunk payload is invalidated and reported as
// domain.ErrCorrupted; the caller recomputes.
func (c *Cache) LoadChunks(ctx context.Context, identity string) ([]domain.Chunk, error) {
	if !c.HasChunks(ctx, identity) {
		return nil, fmt.Errorf("chunks for %q: %w", identity, domain.ErrNotFound)
	}

	payload, err := c.store.Read(ctx, identity, domain.KindChunks)
	if err != nil {
		return nil, c.handleReadError(ctx, identity, domain.KindChunks, err)
	}

	var chunks []domain.Chunk
	if err := json.Unmarshal(payload, &chunks); err != nil {
		return nil, c.reportCorruption(ctx, identity, domain.KindChunks, err)
	}
	if len(chunks) == 0 {
		return nil, c.reportCorruption(ctx, identity, domain.KindChunks, errors.New("empty chunk set on disk"))
	}

	return chunks, nil
}

// SaveChunks persists a non-empty chunk set and commits its metadata.
func (c *Cache) SaveChunks(ctx context.Context, identity string, chunks []domain.Chunk, sourceChecksum string) error {
	if identity == "" {
		return fmt.Errorf("%w: empty identity", domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%w: empty chunk set for %q", domain.ErrInvalidArtifact, identity)
	}

	payload, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshalling chunks: %w", err)
	}
	if err := c.store.Write(ctx, identity, domain.KindChunks, payload); err != nil {
		return fmt.Errorf("writing chunks for %q: %w", identity, err)
	}

	return c.commit(ctx, identity, domain.KindChunks, len(chunks), sourceChecksum)
}

// LoadVector returns the opaque vector artifact payload.
func (c *Cache) LoadVector(ctx context.Context, identity string) ([]byte, error) {
	return c.loadOpaque(ctx, identity, domain.KindVector)
}

// SaveVector persists an opaque vector artifact.
// The chunk set for the identity must exist at call time so the artifact
// is traceable to a chunk generation.
func (c *Cache) SaveVector(ctx context.Context, identity string, payload []byte, builtFrom int) error {
	return c.saveOpaque(ctx, identity, domain.KindVector, payload, builtFrom)
}

// LoadSummary returns the opaque summary artifact payload.
func (c *Cache) LoadSummary(ctx context.Context, identity string) ([]byte, error) {
	return c.loadOpaque(ctx, identity, domain.KindSummary)
}

// SaveSummary persists an opaque summary artifact.
func (c *Cache) SaveSummary(ctx context.Context, identity string, payload []byte, builtFrom int) error {
	return c.saveOpaque(ctx, identity, domain.KindSummary, payload, builtFrom)
}

func (c *Cache) loadOpaque(ctx context.Context, identity string, kind domain.ArtifactKind) ([]byte, error) {
	if !c.has(ctx, identity, kind) {
		return nil, fmt.Errorf("%s for %q: %w", kind, identity, domain.ErrNotFound)
	}

	payload, err := c.store.Read(ctx, identity, kind)
	if err != nil {
		return nil, c.handleReadError(ctx, identity, kind, err)
	}
	return payload, nil
}

func (c *Cache) saveOpaque(ctx context.Context, identity string, kind domain.ArtifactKind, payload []byte, builtFrom int) error {
	if identity == "" {
		return fmt.Errorf("%w: empty identity", domain.ErrInvalidInput)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty %s payload for %q", domain.ErrInvalidArtifact, kind, identity)
	}
	if !c.HasChunks(ctx, identity) {
		return fmt.Errorf("saving %s for %q: %w", kind, identity, domain.ErrChunksRequired)
	}

	if err := c.store.Write(ctx, identity, kind, payload); err != nil {
		return fmt.Errorf("writing %s for %q: %w", kind, identity, err)
	}

	return c.commit(ctx, identity, kind, builtFrom, "")
}

// Metadata returns the metadata record for an identity.
func (c *Cache) Metadata(ctx context.Context, identity string) (*domain.DocumentMetadata, error) {
	return c.readMetadata(ctx, identity)
}

// Invalidate removes one artifact kind and its metadata entry.
// The metadata entry goes first: a crash between the two deletes leaves a
// payload without metadata, which reads as absent.
func (c *Cache) Invalidate(ctx context.Context, identity string, kind domain.ArtifactKind) error {
	if kind == domain.KindMetadata || !kind.Valid() {
		return fmt.Errorf("%w: cannot invalidate %q", domain.ErrInvalidInput, kind)
	}

	meta, err := c.readMetadata(ctx, identity)
	switch {
	case err == nil:
		meta.Remove(kind)
		if meta.Empty() {
			if err := c.store.Delete(ctx, identity, domain.KindMetadata); err != nil {
				return fmt.Errorf("deleting metadata for %q: %w", identity, err)
			}
		} else if err := c.writeMetadata(ctx, identity, meta); err != nil {
			return err
		}
	case errors.Is(err, domain.ErrNotFound):
		// No record to update.
	case errors.Is(err, domain.ErrCorrupted):
		// A corrupted record cannot be partially updated; drop it.
		logger.Warn("metadata for %q is corrupted, removing record", identity)
		if err := c.store.Delete(ctx, identity, domain.KindMetadata); err != nil {
			return fmt.Errorf("deleting corrupted metadata for %q: %w", identity, err)
		}
	default:
		return err
	}

	if err := c.store.Delete(ctx, identity, kind); err != nil {
		return fmt.Errorf("deleting %s for %q: %w", kind, identity, err)
	}
	return nil
}

// Purge removes every artifact kind and the metadata record for an
// identity. The chunks payload is deleted last: it is the identity marker,
// so a crash mid-purge leaves the document enumerable rather than ghosted.
func (c *Cache) Purge(ctx context.Context, identity string) error {
	for _, kind := range []domain.ArtifactKind{domain.KindVector, domain.KindSummary, domain.KindMetadata, domain.KindChunks} {
		if err := c.store.Delete(ctx, identity, kind); err != nil {
			return fmt.Errorf("purging %s for %q: %w", kind, identity, err)
		}
	}
	return nil
}

// commit records provenance for a freshly written payload and writes the
// metadata record. The metadata write is the commit point: until it
// succeeds, the payload reads as absent.
func (c *Cache) commit(ctx context.Context, identity string, kind domain.ArtifactKind, unitCount int, sourceChecksum string) error {
	meta, err := c.readMetadata(ctx, identity)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		meta = domain.NewDocumentMetadata(identity)
	case errors.Is(err, domain.ErrCorrupted):
		logger.Warn("metadata for %q is corrupted, starting a fresh record", identity)
		meta = domain.NewDocumentMetadata(identity)
	case err != nil:
		return err
	}

	meta.Set(kind, domain.ArtifactInfo{
		Status:    domain.StatusReady,
		UnitCount: unitCount,
		CreatedAt: c.now().UTC(),
	})
	if sourceChecksum != "" {
		meta.SourceChecksum = sourceChecksum
	}

	return c.writeMetadata(ctx, identity, meta)
}

func (c *Cache) readMetadata(ctx context.Context, identity string) (*domain.DocumentMetadata, error) {
	payload, err := c.store.Read(ctx, identity, domain.KindMetadata)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("metadata for %q: %w", identity, domain.ErrNotFound)
		}
		return nil, err
	}

	var meta domain.DocumentMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("metadata for %q: %w: %v", identity, domain.ErrCorrupted, err)
	}
	return &meta, nil
}

func (c *Cache) writeMetadata(ctx context.Context, identity string, meta *domain.DocumentMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	if err := c.store.Write(ctx, identity, domain.KindMetadata, payload); err != nil {
		return fmt.Errorf("writing metadata for %q: %w", identity, err)
	}
	return nil
}

// handleReadError maps a store read failure on a committed artifact.
// Corruption invalidates the damaged kind only and is surfaced so the
// caller can recompute; everything else propagates unchanged.
func (c *Cache) handleReadError(ctx context.Context, identity string, kind domain.ArtifactKind, err error) error {
	if errors.Is(err, domain.ErrCorrupted) {
		return c.reportCorruption(ctx, identity, kind, err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s for %q: %w", kind, identity, domain.ErrNotFound)
	}
	return err
}

// reportCorruption logs the damage, invalidates the artifact kind and
// returns a wrapped domain.ErrCorrupted. Other artifact kinds for the
// identity are untouched.
func (c *Cache) reportCorruption(ctx context.Context, identity string, kind domain.ArtifactKind, cause error) error {
	logger.Warn("corrupted %s artifact for %q: %v", kind, identity, cause)
	if err := c.Invalidate(ctx, identity, kind); err != nil {
		logger.Warn("invalidating corrupted %s for %q failed: %v", kind, identity, err)
	}
	return fmt.Errorf("%s for %q: %w", kind, identity, domain.ErrCorrupted)
}
