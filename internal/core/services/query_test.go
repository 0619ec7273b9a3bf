package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// fixedSearcher returns the same hits for every query.
type fixedSearcher struct {
	hits []driven.VectorHit
}

func (s fixedSearcher) Search(_ context.Context, _ string, _ int) ([]driven.VectorHit, error) {
	return s.hits, nil
}

// openTracker is a vector builder whose Open returns a fixed searcher or
// error.
type openTracker struct {
	searcher driven.VectorSearcher
	openErr  error
}

func (openTracker) Build(_ context.Context, chunks []domain.Chunk) ([]byte, int, error) {
	return []byte("vector index"), len(chunks), nil
}

func (o openTracker) Open(_ context.Context, _ []byte) (driven.VectorSearcher, error) {
	return o.searcher, o.openErr
}

// fixedSummary is a summary builder serving a fixed abstract.
type fixedSummary struct {
	text    string
	openErr error
}

func (f fixedSummary) Build(_ context.Context, chunks []domain.Chunk) ([]byte, int, error) {
	return []byte("summary index"), len(chunks), nil
}

func (f fixedSummary) Open(_ context.Context, _ []byte) (driven.SummaryProvider, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return fixedProvider{text: f.text}, nil
}

type fixedProvider struct{ text string }

func (p fixedProvider) Summary(_ context.Context) (string, error) {
	return p.text, nil
}

func (p fixedProvider) Sections(_ context.Context) ([]string, error) {
	return []string{p.text}, nil
}

// echoLLM records the context it was asked against.
type echoLLM struct {
	lastContext  string
	lastQuestion string
}

func (l *echoLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return prompt, nil
}

func (l *echoLLM) Answer(_ context.Context, contextText, question string) (string, error) {
	l.lastContext = contextText
	l.lastQuestion = question
	return "llm answer", nil
}

func (l *echoLLM) Summarise(_ context.Context, content string) (string, error) {
	return content, nil
}

func (l *echoLLM) ModelName() string            { return "echo" }
func (l *echoLLM) Ping(_ context.Context) error { return nil }
func (l *echoLLM) Close() error                 { return nil }

func hit(id, content string, similarity float64) driven.VectorHit {
	return driven.VectorHit{
		Chunk:      domain.Chunk{ID: id, DocumentID: "order_1", Content: content},
		Similarity: similarity,
	}
}

func seedVector(t *testing.T, cache *Cache) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 2), ""))
	require.NoError(t, cache.SaveVector(ctx, "order_1", []byte("vector index"), 2))
}

func TestAsk_RanksNumericallyRichContextFirst(t *testing.T) {
	cache, _ := setupCache(t)
	seedVector(t, cache)

	searcher := fixedSearcher{hits: []driven.VectorHit{
		hit("c1", "the commission heard arguments", 0.9),
		hit("c2", "Table 7: fixed charges are $4M at 8% for 3 years", 0.5),
		hit("c3", "clause 12 applies", 0.7),
	}}
	llm := &echoLLM{}
	query := NewQuery(cache, openTracker{searcher: searcher}, nil, llm, WithTopK(2))

	answer, err := query.Ask(context.Background(), "order_1", "what are the fixed charges")
	require.NoError(t, err)

	assert.Equal(t, "llm answer", answer.Answer)
	require.Len(t, answer.Context, 2)
	assert.Contains(t, answer.Context[0], "$4M")
	assert.Equal(t, "what are the fixed charges", llm.lastQuestion)
	assert.Contains(t, llm.lastContext, "$4M")
}

func TestAsk_NoLLMReturnsContext(t *testing.T) {
	cache, _ := setupCache(t)
	seedVector(t, cache)

	searcher := fixedSearcher{hits: []driven.VectorHit{hit("c1", "energy charges are 5 rupees", 0.9)}}
	query := NewQuery(cache, openTracker{searcher: searcher}, nil, nil)

	answer, err := query.Ask(context.Background(), "order_1", "energy charges")
	require.NoError(t, err)
	assert.Equal(t, "energy charges are 5 rupees", answer.Answer)
}

func TestAsk_MissingVectorArtifact(t *testing.T) {
	cache, _ := setupCache(t)
	query := NewQuery(cache, openTracker{}, nil, nil)

	_, err := query.Ask(context.Background(), "order_1", "anything")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAsk_UndecodableArtifactInvalidated(t *testing.T) {
	cache, _ := setupCache(t)
	seedVector(t, cache)

	builder := openTracker{openErr: fmt.Errorf("decoding index: %w", domain.ErrCorrupted)}
	query := NewQuery(cache, builder, nil, nil)

	ctx := context.Background()
	_, err := query.Ask(ctx, "order_1", "anything")
	assert.ErrorIs(t, err, domain.ErrCorrupted)

	// The artifact was invalidated so the pipeline rebuilds it next run.
	assert.False(t, cache.HasVector(ctx, "order_1"))
	assert.True(t, cache.HasChunks(ctx, "order_1"))
}

func TestAsk_EmptyQuestion(t *testing.T) {
	cache, _ := setupCache(t)
	query := NewQuery(cache, openTracker{}, nil, nil)

	_, err := query.Ask(context.Background(), "order_1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAsk_NoVectorBuilder(t *testing.T) {
	cache, _ := setupCache(t)
	query := NewQuery(cache, nil, nil, nil)

	_, err := query.Ask(context.Background(), "order_1", "anything")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSummarise(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()
	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 2), ""))
	require.NoError(t, cache.SaveSummary(ctx, "order_1", []byte("summary index"), 2))

	query := NewQuery(cache, nil, fixedSummary{text: "the order approves new tariffs"}, nil)

	summary, err := query.Summarise(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "the order approves new tariffs", summary)
}

func TestSummarise_UndecodableArtifactInvalidated(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()
	require.NoError(t, cache.SaveChunks(ctx, "order_1", testChunks("order_1", 2), ""))
	require.NoError(t, cache.SaveSummary(ctx, "order_1", []byte("summary index"), 2))

	builder := fixedSummary{openErr: fmt.Errorf("decoding summary: %w", domain.ErrCorrupted)}
	query := NewQuery(cache, nil, builder, nil)

	_, err := query.Summarise(ctx, "order_1")
	assert.ErrorIs(t, err, domain.ErrCorrupted)
	assert.False(t, cache.HasSummary(ctx, "order_1"))
}
