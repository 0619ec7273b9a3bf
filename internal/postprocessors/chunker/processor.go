// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 512

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 25

// Pages shorter than this multiple of the chunk size are kept whole
// rather than split, to avoid near-empty trailing chunks.
const wholePageFactor = 1.5

// Processor splits page text into fixed-size overlapping chunks.
// It implements the Chunker port.
type Processor struct {
	chunkSize int
	overlap   int
}

var _ driven.Chunker = (*Processor)(nil)

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk splits each page into overlapping chunks. Pages are never merged,
// so every chunk carries the page it came from. Positions are assigned in
// document order across all pages.
func (p *Processor) Chunk(_ context.Context, identity string, pages []domain.Page) ([]domain.Chunk, error) {
	if identity == "" {
		return nil, domain.ErrInvalidInput
	}

	var chunks []domain.Chunk
	position := 0

	for _, page := range pages {
		content := strings.TrimSpace(page.Content)
		if content == "" {
			continue
		}

		for _, piece := range p.split(content) {
			chunks = append(chunks, domain.Chunk{
				ID:         uuid.New().String(),
				DocumentID: identity,
				Content:    piece,
				Position:   position,
				Page:       page.Number,
			})
			position++
		}
	}

	return chunks, nil
}

// split breaks content into overlapping windows. Short content is kept
// whole.
func (p *Processor) split(content string) []string {
	contentLen := len(content)
	if float64(contentLen) < wholePageFactor*float64(p.chunkSize) {
		return []string{content}
	}

	step := p.chunkSize - p.overlap
	pieces := make([]string, 0, contentLen/step+1)

	for start := 0; start < contentLen; start += step {
		end := start + p.chunkSize
		if end > contentLen {
			end = contentLen
		}

		pieces = append(pieces, content[start:end])

		if end == contentLen {
			break
		}
	}

	return pieces
}
