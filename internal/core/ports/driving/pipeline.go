package driving

import "context"

// IngestPipeline drives document processing: extraction, chunking and
// index construction, skipping whatever the cache already holds.
type IngestPipeline interface {
	// Process runs the save-if-missing pipeline for one source document.
	Process(ctx context.Context, path string) (*ProcessResult, error)

	// ProcessAll processes every PDF under the downloads directory,
	// fetching new documents first when a fetcher is configured.
	ProcessAll(ctx context.Context) ([]ProcessResult, error)
}

// ProcessResult reports what one Process run did.
type ProcessResult struct {
	// Identity is the document identity that was processed.
	Identity string

	// ChunkCount is the number of chunks on record after the run.
	ChunkCount int

	// ExtractedChunks is true when chunks were newly extracted.
	ExtractedChunks bool

	// BuiltVector is true when the vector artifact was newly built.
	BuiltVector bool

	// BuiltSummary is true when the summary artifact was newly built.
	BuiltSummary bool

	// Err records a per-document failure during batch processing.
	Err error
}

// QueryService answers questions and produces summaries from persisted
// artifacts. It never writes to the cache.
type QueryService interface {
	// Ask answers a question against one document's vector artifact.
	Ask(ctx context.Context, identity, question string) (*QueryAnswer, error)

	// Summarise returns the whole-document summary.
	Summarise(ctx context.Context, identity string) (string, error)
}

// QueryAnswer is the result of one Ask call.
type QueryAnswer struct {
	// Answer is the LLM response, or the joined context when no LLM is
	// configured.
	Answer string

	// Context is the retrieved, re-ranked context the answer was
	// grounded on.
	Context []string
}
