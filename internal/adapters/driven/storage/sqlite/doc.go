// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - PageStore: page metadata and lifecycle state
//   - ParsedRCAStore: extracted postmortem sections
//   - ChunkStore: embedded chunks and nearest-neighbour lookup
//   - SyncRunStore: sync run records and counters
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Vector Search
//
// Embeddings are stored as little-endian float32 BLOBs. Nearest-neighbour
// queries decode candidate vectors and rank by cosine distance in Go; at the
// corpus sizes this tool targets a linear scan is fast enough that no vector
// index extension is needed.
//
// # Data Location
//
// By default, the database is stored at ~/.rcafinder/data/rcafinder.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
