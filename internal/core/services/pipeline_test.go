package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// stubExtractor returns fixed pages and counts calls.
type stubExtractor struct {
	pages []domain.Page
	err   error
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, _ string) ([]domain.Page, error) {
	s.calls++
	return s.pages, s.err
}

// stubChunker emits one chunk per page.
type stubChunker struct{}

func (stubChunker) Chunk(_ context.Context, identity string, pages []domain.Page) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, 0, len(pages))
	for i, page := range pages {
		chunks = append(chunks, domain.Chunk{
			ID:         identity + "-" + page.Content,
			DocumentID: identity,
			Content:    page.Content,
			Position:   i,
			Page:       page.Number,
		})
	}
	return chunks, nil
}

// stubBuilder produces a fixed payload and counts builds.
type stubBuilder struct {
	payload []byte
	err     error
	builds  int
}

func (s *stubBuilder) Build(_ context.Context, chunks []domain.Chunk) ([]byte, int, error) {
	s.builds++
	return s.payload, len(chunks), s.err
}

func (s *stubBuilder) Open(_ context.Context, _ []byte) (driven.VectorSearcher, error) {
	return nil, nil
}

// summaryStub adapts stubBuilder to the SummaryBuilder port.
type summaryStub struct{ stubBuilder }

func (s *summaryStub) Open(_ context.Context, _ []byte) (driven.SummaryProvider, error) {
	return nil, nil
}

func writeTestPDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test bytes"), 0600))
	return path
}

func setupPipeline(t *testing.T) (*Pipeline, *Cache, *stubExtractor, *stubBuilder, *summaryStub, string) {
	t.Helper()

	cache, _ := setupCache(t)
	extractor := &stubExtractor{pages: []domain.Page{
		{Number: 0, Content: "page zero with tariff table"},
		{Number: 1, Content: "page one with $4M charges"},
	}}
	vector := &stubBuilder{payload: []byte("vector index")}
	summary := &summaryStub{stubBuilder{payload: []byte("summary index")}}

	dir := t.TempDir()
	pipeline := NewPipeline(cache, extractor, stubChunker{}, vector, summary, nil, dir)
	return pipeline, cache, extractor, vector, summary, dir
}

func TestProcess_FreshDocument(t *testing.T) {
	pipeline, cache, extractor, vector, summary, dir := setupPipeline(t)
	ctx := context.Background()
	path := writeTestPDF(t, dir, "order_1.pdf")

	result, err := pipeline.Process(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, "order_1", result.Identity)
	assert.True(t, result.ExtractedChunks)
	assert.True(t, result.BuiltVector)
	assert.True(t, result.BuiltSummary)
	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, 1, vector.builds)
	assert.Equal(t, 1, summary.builds)

	assert.True(t, cache.HasChunks(ctx, "order_1"))
	assert.True(t, cache.HasVector(ctx, "order_1"))
	assert.True(t, cache.HasSummary(ctx, "order_1"))

	// The source checksum was recorded at chunk save.
	meta, err := cache.Metadata(ctx, "order_1")
	require.NoError(t, err)
	assert.NotEmpty(t, meta.SourceChecksum)
}

func TestProcess_FullyIndexedIsNoOp(t *testing.T) {
	pipeline, _, extractor, vector, summary, dir := setupPipeline(t)
	ctx := context.Background()
	path := writeTestPDF(t, dir, "order_1.pdf")

	_, err := pipeline.Process(ctx, path)
	require.NoError(t, err)

	result, err := pipeline.Process(ctx, path)
	require.NoError(t, err)

	assert.False(t, result.ExtractedChunks)
	assert.False(t, result.BuiltVector)
	assert.False(t, result.BuiltSummary)
	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, 1, vector.builds)
	assert.Equal(t, 1, summary.builds)
}

func TestProcess_ResumesAtArtifactGranularity(t *testing.T) {
	// Chunks and vector present, summary missing: the run must produce
	// exactly one new artifact write and no re-extraction.
	pipeline, cache, extractor, vector, summary, dir := setupPipeline(t)
	ctx := context.Background()
	path := writeTestPDF(t, dir, "order_1.pdf")

	chunks := testChunks("order_1", 2)
	require.NoError(t, cache.SaveChunks(ctx, "order_1", chunks, ""))
	require.NoError(t, cache.SaveVector(ctx, "order_1", []byte("prior vector"), 2))

	result, err := pipeline.Process(ctx, path)
	require.NoError(t, err)

	assert.False(t, result.ExtractedChunks)
	assert.False(t, result.BuiltVector)
	assert.True(t, result.BuiltSummary)
	assert.Equal(t, 0, extractor.calls)
	assert.Equal(t, 0, vector.builds)
	assert.Equal(t, 1, summary.builds)

	// The prior vector artifact is untouched.
	payload, err := cache.LoadVector(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("prior vector"), payload)
}

func TestProcess_CorruptedChunksReExtracted(t *testing.T) {
	cache, store := setupCache(t)
	extractor := &stubExtractor{pages: []domain.Page{{Number: 0, Content: "fresh page"}}}
	vector := &stubBuilder{payload: []byte("vector index")}
	summary := &summaryStub{stubBuilder{payload: []byte("summary index")}}
	dir := t.TempDir()
	pipeline := NewPipeline(cache, extractor, stubChunker{}, vector, summary, nil, dir)

	ctx := context.Background()
	path := writeTestPDF(t, dir, "order_1.pdf")

	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 2), ""))
	store.Corrupt("order_1", domain.KindChunks)

	result, err := pipeline.Process(ctx, path)
	require.NoError(t, err)

	assert.True(t, result.ExtractedChunks)
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, 1, result.ChunkCount)

	chunks, err := cache.LoadChunks(ctx, "order_1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "fresh page", chunks[0].Content)
}

func TestProcess_NilBuildersSkipArtifacts(t *testing.T) {
	cache, _ := setupCache(t)
	extractor := &stubExtractor{pages: []domain.Page{{Number: 0, Content: "page"}}}
	dir := t.TempDir()
	pipeline := NewPipeline(cache, extractor, stubChunker{}, nil, nil, nil, dir)

	ctx := context.Background()
	path := writeTestPDF(t, dir, "order_1.pdf")

	result, err := pipeline.Process(ctx, path)
	require.NoError(t, err)

	assert.True(t, result.ExtractedChunks)
	assert.False(t, result.BuiltVector)
	assert.False(t, result.BuiltSummary)
	assert.True(t, cache.HasChunks(ctx, "order_1"))
	assert.False(t, cache.HasVector(ctx, "order_1"))
}

func TestProcess_BadPath(t *testing.T) {
	pipeline, _, _, _, _, _ := setupPipeline(t)

	_, err := pipeline.Process(context.Background(), "   .pdf")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcessAll_WalksDownloadsDir(t *testing.T) {
	pipeline, cache, _, _, _, dir := setupPipeline(t)
	ctx := context.Background()

	writeTestPDF(t, dir, "order_a.pdf")
	writeTestPDF(t, dir, "order_b.PDF")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0600))

	results, err := pipeline.ProcessAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, cache.HasChunks(ctx, "order_a"))
	assert.True(t, cache.HasChunks(ctx, "order_b"))
}

func TestProcessAll_ContinuesPastFailures(t *testing.T) {
	cache, _ := setupCache(t)
	extractor := &stubExtractor{err: domain.ErrInvalidInput}
	dir := t.TempDir()
	pipeline := NewPipeline(cache, extractor, stubChunker{}, nil, nil, nil, dir)

	writeTestPDF(t, dir, "order_a.pdf")
	writeTestPDF(t, dir, "order_b.pdf")

	results, err := pipeline.ProcessAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.Error(t, results[1].Err)
}

// pathFetcher is a fetcher returning fixed paths.
type pathFetcher struct{ paths []string }

func (f pathFetcher) Fetch(_ context.Context) ([]string, error) {
	return f.paths, nil
}

func TestProcessAll_UsesFetcher(t *testing.T) {
	cache, _ := setupCache(t)
	extractor := &stubExtractor{pages: []domain.Page{{Number: 0, Content: "page"}}}
	dir := t.TempDir()
	path := writeTestPDF(t, dir, "order_f.pdf")

	pipeline := NewPipeline(cache, extractor, stubChunker{}, nil, nil, pathFetcher{paths: []string{path}}, dir)

	results, err := pipeline.ProcessAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "order_f", results[0].Identity)
}
