package driven

import (
	"context"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
)

// VectorIndexBuilder builds and reopens similarity search artifacts.
// The artifact payload is opaque to the cache: the builder that produced
// it is the only party that can decode it.
type VectorIndexBuilder interface {
	// Build constructs a similarity index over the chunks and returns its
	// serialised payload plus the number of units it was built from.
	Build(ctx context.Context, chunks []domain.Chunk) ([]byte, int, error)

	// Open deserialises a previously built payload into a searcher.
	// Returns domain.ErrCorrupted when the payload cannot be decoded.
	Open(ctx context.Context, payload []byte) (VectorSearcher, error)
}

// VectorSearcher answers similarity queries against one opened index.
type VectorSearcher interface {
	// Search returns the k most similar chunks to the query text.
	Search(ctx context.Context, query string, k int) ([]VectorHit, error)
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}

// SummaryBuilder builds and reopens whole-document summarisation artifacts.
type SummaryBuilder interface {
	// Build constructs a summary artifact over the chunks and returns its
	// serialised payload plus the number of units it was built from.
	Build(ctx context.Context, chunks []domain.Chunk) ([]byte, int, error)

	// Open deserialises a previously built payload into a provider.
	// Returns domain.ErrCorrupted when the payload cannot be decoded.
	Open(ctx context.Context, payload []byte) (SummaryProvider, error)
}

// SummaryProvider serves summaries from one opened artifact.
type SummaryProvider interface {
	// Summary returns the whole-document abstract.
	Summary(ctx context.Context) (string, error)

	// Sections returns the ordered section texts the abstract was built from.
	Sections(ctx context.Context) ([]string, error)
}
