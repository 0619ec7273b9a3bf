package domain

import "time"

// ArtifactKind identifies one namespace in the artifact store.
type ArtifactKind string

const (
	// KindChunks is the extracted chunk set for a document.
	// A document identity only counts as known once its chunk set exists.
	KindChunks ArtifactKind = "chunks"

	// KindVector is the opaque similarity search index built from chunks.
	KindVector ArtifactKind = "vector"

	// KindSummary is the opaque summarisation index built from chunks.
	KindSummary ArtifactKind = "summary"

	// KindMetadata is the per-document metadata record.
	KindMetadata ArtifactKind = "metadata"
)

// Kinds returns the payload artifact kinds, excluding metadata.
func Kinds() []ArtifactKind {
	return []ArtifactKind{KindChunks, KindVector, KindSummary}
}

// Valid reports whether k names a known namespace.
func (k ArtifactKind) Valid() bool {
	switch k {
	case KindChunks, KindVector, KindSummary, KindMetadata:
		return true
	}
	return false
}

// ArtifactInfo records provenance for one artifact kind of a document.
type ArtifactInfo struct {
	// Status is a free-form status tag, normally "ready".
	Status string `json:"status"`

	// UnitCount is the number of chunks the artifact was built from.
	// For the chunk set itself, the number of chunks stored.
	UnitCount int `json:"unit_count"`

	// CreatedAt is when the artifact was persisted.
	CreatedAt time.Time `json:"created_at"`
}

// StatusReady is the status tag for a fully written artifact.
const StatusReady = "ready"

// DocumentMetadata is the per-identity metadata record.
// An entry exists for an artifact kind if and only if that kind's payload
// exists in the store; the metadata write is the commit point for a save.
type DocumentMetadata struct {
	// Identity is the document identity this record belongs to.
	Identity string `json:"identity"`

	// Artifacts maps artifact kind to its provenance entry.
	Artifacts map[ArtifactKind]ArtifactInfo `json:"artifacts"`

	// SourceChecksum is the SHA-256 of the source document at extraction
	// time, hex encoded. Optional; empty when the source was not hashed.
	SourceChecksum string `json:"source_checksum,omitempty"`
}

// NewDocumentMetadata creates an empty metadata record for an identity.
func NewDocumentMetadata(identity string) *DocumentMetadata {
	return &DocumentMetadata{
		Identity:  identity,
		Artifacts: make(map[ArtifactKind]ArtifactInfo),
	}
}

// Has reports whether the record has an entry for the given kind.
func (m *DocumentMetadata) Has(kind ArtifactKind) bool {
	if m == nil {
		return false
	}
	_, ok := m.Artifacts[kind]
	return ok
}

// Set records provenance for an artifact kind.
func (m *DocumentMetadata) Set(kind ArtifactKind, info ArtifactInfo) {
	if m.Artifacts == nil {
		m.Artifacts = make(map[ArtifactKind]ArtifactInfo)
	}
	m.Artifacts[kind] = info
}

// Remove drops the entry for an artifact kind.
func (m *DocumentMetadata) Remove(kind ArtifactKind) {
	delete(m.Artifacts, kind)
}

// Empty reports whether no artifact kinds are recorded.
func (m *DocumentMetadata) Empty() bool {
	return m == nil || len(m.Artifacts) == 0
}
