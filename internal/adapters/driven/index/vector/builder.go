// Package vector builds and searches embedding-based retrieval indexes.
// The index is a flat list of chunk embeddings searched by brute-force
// cosine similarity, which is plenty for single-document corpora.
package vector

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"sort"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// indexPayload is the serialised form of a vector index artifact.
type indexPayload struct {
	Model      string
	Dimensions int
	Entries    []indexEntry
}

type indexEntry struct {
	Chunk     domain.Chunk
	Embedding []float32
}

// Builder creates vector index artifacts from chunks and opens them
// for search. It implements the VectorIndexBuilder port.
type Builder struct {
	embedder driven.EmbeddingService
}

var _ driven.VectorIndexBuilder = (*Builder)(nil)

// NewBuilder creates a builder backed by the given embedding service.
func NewBuilder(embedder driven.EmbeddingService) *Builder {
	return &Builder{embedder: embedder}
}

// Build embeds every chunk and serialises the index. The returned count
// is the number of indexed chunks.
func (b *Builder) Build(ctx context.Context, chunks []domain.Chunk) ([]byte, int, error) {
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("%w: no chunks to index", domain.ErrInvalidInput)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, 0, fmt.Errorf("embedding chunks: got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	payload := indexPayload{
		Model:      b.embedder.ModelName(),
		Dimensions: b.embedder.Dimensions(),
		Entries:    make([]indexEntry, len(chunks)),
	}
	for i := range chunks {
		payload.Entries[i] = indexEntry{Chunk: chunks[i], Embedding: embeddings[i]}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, 0, fmt.Errorf("encoding vector index: %w", err)
	}

	return buf.Bytes(), len(chunks), nil
}

// Open decodes a serialised index into a searcher. Payloads that fail
// to decode or carry inconsistent embeddings are reported as corrupted.
func (b *Builder) Open(_ context.Context, payload []byte) (driven.VectorSearcher, error) {
	var index indexPayload
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&index); err != nil {
		return nil, fmt.Errorf("%w: undecodable vector index: %v", domain.ErrCorrupted, err)
	}

	if index.Dimensions <= 0 || len(index.Entries) == 0 {
		return nil, fmt.Errorf("%w: empty vector index", domain.ErrCorrupted)
	}
	for _, entry := range index.Entries {
		if len(entry.Embedding) != index.Dimensions {
			return nil, fmt.Errorf("%w: embedding dimension mismatch in vector index", domain.ErrCorrupted)
		}
	}

	return &searcher{embedder: b.embedder, index: index}, nil
}

// searcher answers similarity queries against a decoded index.
type searcher struct {
	embedder driven.EmbeddingService
	index    indexPayload
}

// Search embeds the query and returns the k most similar chunks,
// highest similarity first.
func (s *searcher) Search(ctx context.Context, query string, k int) ([]driven.VectorHit, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, nil
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(s.index.Entries))
	for _, entry := range s.index.Entries {
		hits = append(hits, driven.VectorHit{
			Chunk:      entry.Chunk,
			Similarity: cosineSimilarity(queryEmbedding, entry.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}

	return hits, nil
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
