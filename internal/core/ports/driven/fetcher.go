package driven

import "context"

// OrderFetcher discovers and downloads source documents for indexing.
// This is an optional service - when nil, sync only processes files
// already present in the downloads directory.
type OrderFetcher interface {
	// Fetch downloads any new source documents and returns the local
	// paths of all documents that should be indexed, including ones that
	// were already on disk.
	Fetch(ctx context.Context) ([]string, error)
}
