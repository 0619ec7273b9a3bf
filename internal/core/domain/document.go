package domain

import (
	"path/filepath"
	"strings"
)

// Chunk represents a searchable unit extracted from a document.
// Documents are split into chunks for granular retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID is the identity of the owning document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	// Positions are assigned in extraction order and are stable across runs.
	Position int

	// Page is the zero-based source page the chunk was extracted from.
	Page int
}

// IdentityFromPath derives the document identity from a source file path.
// The identity is the base name without extension, so the same file always
// maps to the same identity across runs. It is the sole join key between
// chunk, vector and summary artifacts.
func IdentityFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.TrimSpace(name)
}

// Page is one page of extracted text before chunking.
type Page struct {
	// Number is the zero-based page number.
	Number int

	// Content is the extracted text of the page.
	Content string
}
