// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ArtifactStore: Byte-level artifact persistence keyed by document identity
//   - ChunkExtractor: Extracts page text from source PDFs
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, the vector
//     index builder is disabled.
//   - LLMService: Language model operations. Without it, answering and
//     summarisation are disabled.
//   - OrderFetcher: Downloads source documents. Without it, sync only
//     indexes already-downloaded files.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
