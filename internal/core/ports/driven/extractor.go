package driven

import (
	"context"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
)

// ChunkExtractor extracts page text from a source document on disk.
// Pages that fail text validation (binary garbage, unextractable scans)
// are dropped by the implementation.
type ChunkExtractor interface {
	// Extract returns the ordered pages of extracted text.
	// Returns domain.ErrInvalidInput when no page yields usable text.
	Extract(ctx context.Context, path string) ([]domain.Page, error)
}

// Chunker splits extracted pages into ordered, position-stable chunks.
type Chunker interface {
	// Chunk produces the chunk set for a document from its pages.
	Chunk(ctx context.Context, identity string, pages []domain.Page) ([]domain.Chunk, error)
}
