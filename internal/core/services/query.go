package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driving"
	"github.com/gridwise-labs/regtrack/internal/logger"
)

// Ensure Query implements the interface.
var _ driving.QueryService = (*Query)(nil)

// DefaultTopK is the number of context snippets fed to the LLM.
const DefaultTopK = 5

// Query answers questions and produces summaries from persisted
// artifacts. It is strictly read-only against the cache, except for
// invalidating an artifact that turns out to be undecodable.
type Query struct {
	cache     driving.DocumentCache
	vector    driven.VectorIndexBuilder
	summary   driven.SummaryBuilder
	llm       driven.LLMService
	topK      int
	expansion QueryExpansion
}

// QueryOption configures the query service.
type QueryOption func(*Query)

// WithTopK sets the number of context snippets retrieved per question.
func WithTopK(k int) QueryOption {
	return func(q *Query) {
		if k > 0 {
			q.topK = k
		}
	}
}

// WithExpansion sets the query expansion terms.
func WithExpansion(exp QueryExpansion) QueryOption {
	return func(q *Query) {
		q.expansion = exp
	}
}

// NewQuery creates a query service. The LLM is optional - without it, Ask
// returns the retrieved context as the answer and Summarise serves only
// pre-built abstracts.
func NewQuery(
	cache driving.DocumentCache,
	vector driven.VectorIndexBuilder,
	summary driven.SummaryBuilder,
	llm driven.LLMService,
	opts ...QueryOption,
) *Query {
	q := &Query{
		cache:   cache,
		vector:  vector,
		summary: summary,
		llm:     llm,
		topK:    DefaultTopK,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Ask answers a question against one document's vector artifact.
func (q *Query) Ask(ctx context.Context, identity, question string) (*driving.QueryAnswer, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if q.vector == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	payload, err := q.cache.LoadVector(ctx, identity)
	if err != nil {
		return nil, err
	}

	searcher, err := q.vector.Open(ctx, payload)
	if err != nil {
		return nil, q.handleOpenError(ctx, identity, domain.KindVector, err)
	}

	snippets, err := q.retrieve(ctx, searcher, question)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, fmt.Errorf("no context retrieved for %q: %w", identity, domain.ErrNotFound)
	}

	answer := &driving.QueryAnswer{Context: snippets}
	contextText := strings.Join(snippets, "\n\n")

	if q.llm == nil {
		logger.Debug("no LLM configured, returning raw context")
		answer.Answer = contextText
		return answer, nil
	}

	response, err := q.llm.Answer(ctx, contextText, question)
	if err != nil {
		return nil, fmt.Errorf("answering against %q: %w", identity, err)
	}
	answer.Answer = response
	return answer, nil
}

// retrieve searches the index with every expanded query, deduplicates by
// chunk and re-ranks: numeric richness first, table relevance breaking
// ties, matching how approved tariff figures read in order documents.
func (q *Query) retrieve(ctx context.Context, searcher driven.VectorSearcher, question string) ([]string, error) {
	queries := expandQuery(question, q.expansion)
	logger.Debug("expanded question into %d retrieval queries", len(queries))

	seen := make(map[string]struct{})
	var hits []driven.VectorHit
	for _, query := range queries {
		results, err := searcher.Search(ctx, query, q.topK)
		if err != nil {
			return nil, fmt.Errorf("searching: %w", err)
		}
		for _, hit := range results {
			if _, dup := seen[hit.Chunk.ID]; dup {
				continue
			}
			seen[hit.Chunk.ID] = struct{}{}
			hits = append(hits, hit)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return scoreTableRelevance(hits[i].Chunk.Content) > scoreTableRelevance(hits[j].Chunk.Content)
	})
	sort.SliceStable(hits, func(i, j int) bool {
		return scoreNumericRichness(hits[i].Chunk.Content) > scoreNumericRichness(hits[j].Chunk.Content)
	})

	if len(hits) > q.topK {
		hits = hits[:q.topK]
	}

	snippets := make([]string, 0, len(hits))
	for _, hit := range hits {
		snippets = append(snippets, hit.Chunk.Content)
	}
	return snippets, nil
}

// Summarise returns the whole-document summary from the summary artifact.
func (q *Query) Summarise(ctx context.Context, identity string) (string, error) {
	if q.summary == nil {
		return "", domain.ErrLLMUnavailable
	}

	payload, err := q.cache.LoadSummary(ctx, identity)
	if err != nil {
		return "", err
	}

	provider, err := q.summary.Open(ctx, payload)
	if err != nil {
		return "", q.handleOpenError(ctx, identity, domain.KindSummary, err)
	}

	return provider.Summary(ctx)
}

// handleOpenError deals with an artifact that passed store verification
// but cannot be decoded by its builder: invalidate it and surface the
// corruption so the pipeline rebuilds it on the next run.
func (q *Query) handleOpenError(ctx context.Context, identity string, kind domain.ArtifactKind, err error) error {
	if !errors.Is(err, domain.ErrCorrupted) {
		return err
	}
	logger.Warn("%s artifact for %q is undecodable: %v", kind, identity, err)
	if invErr := q.cache.Invalidate(ctx, identity, kind); invErr != nil {
		logger.Warn("invalidating %s for %q failed: %v", kind, identity, invErr)
	}
	return fmt.Errorf("%s for %q: %w", kind, identity, domain.ErrCorrupted)
}
