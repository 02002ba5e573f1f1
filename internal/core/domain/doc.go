// Package domain defines the core business entities for RCA Finder.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Page: An ingested postmortem page and its lifecycle state
//   - ParsedRCA: Structured sections extracted from a page
//   - EmbeddedChunk: An embedded text window cut from a section
//   - SyncRun: One invocation of the sync orchestrator
//   - RankedResult / Confidence: Retrieval output types
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
