// Package summary builds whole-document summary artifacts.
// The artifact stores the per-page section texts plus an LLM-written
// abstract, serialised as JSON.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// maxSectionChars caps how much text per section is sent to the LLM
// when composing the abstract.
const maxSectionChars = 2000

// summaryPayload is the serialised form of a summary artifact.
type summaryPayload struct {
	Abstract string   `json:"abstract"`
	Sections []string `json:"sections"`
}

// Builder creates summary artifacts from chunks and opens them for
// reading. It implements the SummaryBuilder port. The LLM is optional:
// without one the artifact carries sections but no abstract.
type Builder struct {
	llm driven.LLMService
}

var _ driven.SummaryBuilder = (*Builder)(nil)

// NewBuilder creates a builder. llm may be nil.
func NewBuilder(llm driven.LLMService) *Builder {
	return &Builder{llm: llm}
}

// Build groups chunks into per-page sections, asks the LLM for an
// abstract, and serialises the result. The returned count is the number
// of sections.
func (b *Builder) Build(ctx context.Context, chunks []domain.Chunk) ([]byte, int, error) {
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("%w: no chunks to summarise", domain.ErrInvalidInput)
	}

	sections := sectionsByPage(chunks)

	payload := summaryPayload{Sections: sections}
	if b.llm != nil {
		abstract, err := b.llm.Summarise(ctx, joinForPrompt(sections))
		if err != nil {
			return nil, 0, fmt.Errorf("summarising document: %w", err)
		}
		payload.Abstract = strings.TrimSpace(abstract)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding summary: %w", err)
	}

	return data, len(sections), nil
}

// Open decodes a serialised summary artifact. Payloads that fail to
// decode or carry no sections are reported as corrupted.
func (b *Builder) Open(_ context.Context, payload []byte) (driven.SummaryProvider, error) {
	var decoded summaryPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: undecodable summary: %v", domain.ErrCorrupted, err)
	}
	if len(decoded.Sections) == 0 {
		return nil, fmt.Errorf("%w: summary carries no sections", domain.ErrCorrupted)
	}

	return &provider{payload: decoded}, nil
}

// sectionsByPage concatenates chunk texts page by page, in page order.
func sectionsByPage(chunks []domain.Chunk) []string {
	byPage := make(map[int][]domain.Chunk)
	for _, chunk := range chunks {
		byPage[chunk.Page] = append(byPage[chunk.Page], chunk)
	}

	pages := make([]int, 0, len(byPage))
	for page := range byPage {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	sections := make([]string, 0, len(pages))
	for _, page := range pages {
		group := byPage[page]
		sort.Slice(group, func(i, j int) bool { return group[i].Position < group[j].Position })

		parts := make([]string, len(group))
		for i, chunk := range group {
			parts[i] = chunk.Content
		}
		sections = append(sections, strings.Join(parts, "\n"))
	}

	return sections
}

// joinForPrompt assembles section texts for the summarisation prompt,
// truncating long sections so the prompt stays bounded.
func joinForPrompt(sections []string) string {
	parts := make([]string, len(sections))
	for i, section := range sections {
		if len(section) > maxSectionChars {
			section = section[:maxSectionChars]
		}
		parts[i] = section
	}
	return strings.Join(parts, "\n\n")
}

// provider serves one decoded summary artifact.
type provider struct {
	payload summaryPayload
}

// Summary returns the stored abstract, falling back to the first
// section when no abstract was built.
func (p *provider) Summary(_ context.Context) (string, error) {
	if p.payload.Abstract != "" {
		return p.payload.Abstract, nil
	}
	return p.payload.Sections[0], nil
}

// Sections returns the stored section texts in document order.
func (p *provider) Sections(_ context.Context) ([]string, error) {
	out := make([]string, len(p.payload.Sections))
	copy(out, p.payload.Sections)
	return out, nil
}
