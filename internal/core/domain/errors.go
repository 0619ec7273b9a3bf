package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors: storage-medium failures
// (permissions, disk full) propagate unchanged and never map to these.
var (
	// ErrNotFound indicates a requested artifact or document does not exist.
	// Recoverable: callers treat it as a cache miss and recompute.
	ErrNotFound = errors.New("not found")

	// ErrCorrupted indicates an artifact is present but failed verification
	// or could not be decoded. Recoverable by invalidation and recompute,
	// but always logged because it points at storage damage.
	ErrCorrupted = errors.New("artifact corrupted")

	// ErrInvalidArtifact indicates the caller supplied a structurally
	// invalid artifact, such as an empty chunk set. Caller bug, not retried.
	ErrInvalidArtifact = errors.New("invalid artifact")

	// ErrChunksRequired indicates an index artifact was saved for a
	// document with no chunk set on record. Caller bug, not retried.
	ErrChunksRequired = errors.New("chunk set required")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedKind indicates an unknown artifact kind.
	ErrUnsupportedKind = errors.New("unsupported artifact kind")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Features requiring LLM (answering, summarisation) are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Vector index construction and search are disabled.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
