package services

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwise-labs/regtrack/internal/adapters/driven/storage/memory"
	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/logger"
)

func init() {
	// Corruption warnings are expected noise in these tests.
	logger.SetOutput(io.Discard)
}

func testChunks(identity string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, domain.Chunk{
			ID:         identity + "-c" + string(rune('a'+i)),
			DocumentID: identity,
			Content:    "chunk content with table and $12M figures",
			Position:   i,
			Page:       i / 2,
		})
	}
	return chunks
}

func setupCache(t *testing.T) (*Cache, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewCache(store), store
}

func TestHas_FalseBeforeAnySave(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	assert.False(t, cache.HasChunks(ctx, "order_1"))
	assert.False(t, cache.HasVector(ctx, "order_1"))
	assert.False(t, cache.HasSummary(ctx, "order_1"))
}

func TestSaveChunks_RoundTrip(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	chunks := testChunks("order_1", 4)
	require.NoError(t, cache.SaveChunks(ctx, "order_1", chunks, "abc123"))
	assert.True(t, cache.HasChunks(ctx, "order_1"))

	got, err := cache.LoadChunks(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, chunks, got)
}

func TestSaveChunks_EmptySetRejected(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	err := cache.SaveChunks(ctx, "order_1", nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
	assert.False(t, cache.HasChunks(ctx, "order_1"))
}

func TestSaveChunks_Idempotent(t *testing.T) {
	cache, store := setupCache(t)
	ctx := context.Background()

	chunks := testChunks("order_1", 3)
	require.NoError(t, cache.SaveChunks(ctx, "order_1", chunks, ""))
	require.NoError(t, cache.SaveChunks(ctx, "order_1", chunks, ""))

	got, err := cache.LoadChunks(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, chunks, got)

	// One chunk payload plus one metadata record, no duplicates.
	assert.Equal(t, 2, store.Len())

	meta, err := cache.Metadata(ctx, "order_1")
	require.NoError(t, err)
	assert.Len(t, meta.Artifacts, 1)
	assert.Equal(t, 3, meta.Artifacts[domain.KindChunks].UnitCount)
}

func TestLoadChunks_NotFound(t *testing.T) {
	cache, _ := setupCache(t)

	_, err := cache.LoadChunks(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveVector_RequiresChunks(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	err := cache.SaveVector(ctx, "order_1", []byte("vector index"), 4)
	assert.ErrorIs(t, err, domain.ErrChunksRequired)

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 4), ""))
	require.NoError(t, cache.SaveVector(ctx, "order_1", []byte("vector index"), 4))
	assert.True(t, cache.HasVector(ctx, "order_1"))
}

func TestSaveSummary_RequiresChunks(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	err := cache.SaveSummary(ctx, "order_1", []byte("summary index"), 4)
	assert.ErrorIs(t, err, domain.ErrChunksRequired)
}

func TestSaveVector_EmptyPayloadRejected(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 2), ""))
	err := cache.SaveVector(ctx, "order_1", nil, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
}

func TestPartialProgress_IsValidState(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 4), ""))
	require.NoError(t, cache.SaveVector(ctx, "order_1", []byte("vector index"), 4))

	assert.True(t, cache.HasChunks(ctx, "order_1"))
	assert.True(t, cache.HasVector(ctx, "order_1"))
	assert.False(t, cache.HasSummary(ctx, "order_1"))
}

func TestVector_LoadableAfterChunksInvalidated(t *testing.T) {
	// Index artifacts do not require the chunk set to still be present
	// once persisted; the two load independently on a cache hit.
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 4), ""))
	require.NoError(t, cache.SaveVector(ctx, "order_1", []byte("vector index"), 4))
	require.NoError(t, cache.Invalidate(ctx, "order_1", domain.KindChunks))

	payload, err := cache.LoadVector(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("vector index"), payload)
}

func TestCorruptionRecovery_DamagedVectorOnly(t *testing.T) {
	cache, store := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 4), ""))
	require.NoError(t, cache.SaveVector(ctx, "order_1", []byte("vector index"), 4))
	require.NoError(t, cache.SaveSummary(ctx, "order_1", []byte("summary index"), 4))

	store.Corrupt("order_1", domain.KindVector)

	_, err := cache.LoadVector(ctx, "order_1")
	assert.ErrorIs(t, err, domain.ErrCorrupted)

	// The damaged artifact was invalidated; the rest is untouched.
	assert.False(t, cache.HasVector(ctx, "order_1"))
	assert.True(t, cache.HasChunks(ctx, "order_1"))
	assert.True(t, cache.HasSummary(ctx, "order_1"))

	meta, err := cache.Metadata(ctx, "order_1")
	require.NoError(t, err)
	assert.False(t, meta.Has(domain.KindVector))
	assert.True(t, meta.Has(domain.KindChunks))
	assert.True(t, meta.Has(domain.KindSummary))
}

func TestCorruptionRecovery_DamagedChunks(t *testing.T) {
	cache, store := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 4), ""))
	store.Corrupt("order_1", domain.KindChunks)

	_, err := cache.LoadChunks(ctx, "order_1")
	assert.ErrorIs(t, err, domain.ErrCorrupted)
	assert.False(t, cache.HasChunks(ctx, "order_1"))

	// The document can be re-extracted afterwards.
	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 2), ""))
	assert.True(t, cache.HasChunks(ctx, "order_1"))
}

func TestMetadataIsCommitPoint(t *testing.T) {
	cache, store := setupCache(t)
	ctx := context.Background()

	// Simulate a crash after the payload write but before the metadata
	// write: the payload alone must read as absent.
	require.NoError(t, store.Write(ctx, "order_1", domain.KindChunks, []byte("[]")))

	assert.False(t, cache.HasChunks(ctx, "order_1"))
	_, err := cache.LoadChunks(ctx, "order_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 4), ""))
	require.NoError(t, cache.SaveVector(ctx, "order_1", []byte("vector index"), 4))

	require.NoError(t, cache.Invalidate(ctx, "order_1", domain.KindVector))
	assert.False(t, cache.HasVector(ctx, "order_1"))
	assert.True(t, cache.HasChunks(ctx, "order_1"))

	meta, err := cache.Metadata(ctx, "order_1")
	require.NoError(t, err)
	assert.False(t, meta.Has(domain.KindVector))
}

func TestInvalidate_MetadataKindRejected(t *testing.T) {
	cache, _ := setupCache(t)

	err := cache.Invalidate(context.Background(), "order_1", domain.KindMetadata)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInvalidate_LastKindDropsRecord(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 2), ""))
	require.NoError(t, cache.Invalidate(ctx, "order_1", domain.KindChunks))

	_, err := cache.Metadata(ctx, "order_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurge(t *testing.T) {
	cache, store := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 4), ""))
	require.NoError(t, cache.SaveVector(ctx, "order_1", []byte("vector index"), 4))
	require.NoError(t, cache.SaveSummary(ctx, "order_1", []byte("summary index"), 4))

	require.NoError(t, cache.Purge(ctx, "order_1"))

	assert.False(t, cache.HasChunks(ctx, "order_1"))
	assert.False(t, cache.HasVector(ctx, "order_1"))
	assert.False(t, cache.HasSummary(ctx, "order_1"))
	assert.Equal(t, 0, store.Len())

	identities, err := store.ListIdentities(ctx)
	require.NoError(t, err)
	assert.Empty(t, identities)

	// Idempotent.
	require.NoError(t, cache.Purge(ctx, "order_1"))
}

func TestSourceChecksum_Recorded(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 2), "deadbeef"))

	meta, err := cache.Metadata(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", meta.SourceChecksum)

	// A later index save leaves the checksum alone.
	require.NoError(t, cache.SaveVector(ctx, "order_1", []byte("vector index"), 2))
	meta, err = cache.Metadata(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", meta.SourceChecksum)
}
