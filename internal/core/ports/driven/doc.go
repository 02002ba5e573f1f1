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
//   - DocumentSource: Fetches postmortem pages from the document source
//   - PageStore: Page lifecycle persistence
//   - ParsedRCAStore: Parsed section persistence
//   - ChunkStore: Embedded chunk persistence and nearest-neighbour lookup
//   - SyncRunStore: Sync run persistence
//   - ConfigStore: Application configuration
//   - EmbeddingProvider: Generates vector embeddings
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - GenerationProvider: Summarises ranked results into a suggested root
//     cause. Without it, search still works but produces no summary.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
