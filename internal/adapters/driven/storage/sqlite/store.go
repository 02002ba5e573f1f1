package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/opsrca/rcafinder/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.rcafinder/data/rcafinder.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".rcafinder", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "rcafinder.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// PageStore returns a PageStore interface backed by this store.
func (s *Store) PageStore() driven.PageStore {
	return &pageStore{store: s}
}

// ParsedRCAStore returns a ParsedRCAStore interface backed by this store.
func (s *Store) ParsedRCAStore() driven.ParsedRCAStore {
	return &parsedRCAStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// SyncRunStore returns a SyncRunStore interface backed by this store.
func (s *Store) SyncRunStore() driven.SyncRunStore {
	return &syncRunStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Page Store ====================

// pageStore implements driven.PageStore.
type pageStore struct {
	store *Store
}

var _ driven.PageStore = (*pageStore)(nil)

// SavePage stores or updates a page record.
func (s *pageStore) SavePage(ctx context.Context, page *domain.Page) error {
	tagsJSON, err := json.Marshal(page.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO pages (page_id, space_key, title, url, tags, last_modified,
			ingested_at, parsed_at, embedded_at, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			space_key = excluded.space_key,
			title = excluded.title,
			url = excluded.url,
			tags = excluded.tags,
			last_modified = excluded.last_modified,
			ingested_at = excluded.ingested_at,
			parsed_at = excluded.parsed_at,
			embedded_at = excluded.embedded_at,
			status = excluded.status,
			error_message = excluded.error_message
	`, page.PageID, page.SpaceKey, page.Title, page.URL, string(tagsJSON),
		nullTime(page.LastModified), nullTime(page.IngestedAt),
		nullTime(page.ParsedAt), nullTime(page.EmbeddedAt),
		string(page.Status), page.ErrorMessage)

	if err != nil {
		return fmt.Errorf("saving page: %w", err)
	}
	return nil
}

// GetPage retrieves a page by its source identifier.
func (s *pageStore) GetPage(ctx context.Context, pageID string) (*domain.Page, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT page_id, space_key, title, url, tags, last_modified,
			ingested_at, parsed_at, embedded_at, status, error_message
		FROM pages WHERE page_id = ?
	`, pageID)

	page, err := scanPage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	return page, nil
}

// ListPages returns all tracked pages, optionally filtered by space key.
func (s *pageStore) ListPages(ctx context.Context, spaceKey string) ([]domain.Page, error) {
	query := `
		SELECT page_id, space_key, title, url, tags, last_modified,
			ingested_at, parsed_at, embedded_at, status, error_message
		FROM pages`
	args := []any{}
	if spaceKey != "" {
		query += " WHERE space_key = ?"
		args = append(args, spaceKey)
	}
	query += " ORDER BY page_id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page //nolint:prealloc // size unknown from query
	for rows.Next() {
		page, err := scanPage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, *page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages: %w", err)
	}

	return pages, nil
}

// ==================== Parsed RCA Store ====================

// parsedRCAStore implements driven.ParsedRCAStore.
type parsedRCAStore struct {
	store *Store
}

var _ driven.ParsedRCAStore = (*parsedRCAStore)(nil)

// SaveParsedRCA replaces the parsed RCA for a page.
func (s *parsedRCAStore) SaveParsedRCA(ctx context.Context, rca *domain.ParsedRCA) error {
	var incidentDate any
	if rca.IncidentDate != nil {
		incidentDate = *rca.IncidentDate
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO parsed_rcas (page_id, symptoms, root_cause, resolution, incident_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			symptoms = excluded.symptoms,
			root_cause = excluded.root_cause,
			resolution = excluded.resolution,
			incident_date = excluded.incident_date
	`, rca.PageID, rca.Symptoms, rca.RootCause, rca.Resolution, incidentDate)

	if err != nil {
		return fmt.Errorf("saving parsed rca: %w", err)
	}
	return nil
}

// GetParsedRCA retrieves the parsed RCA for a page.
func (s *parsedRCAStore) GetParsedRCA(ctx context.Context, pageID string) (*domain.ParsedRCA, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT page_id, symptoms, root_cause, resolution, incident_date
		FROM parsed_rcas WHERE page_id = ?
	`, pageID)

	var rca domain.ParsedRCA
	var incidentDate sql.NullTime
	if err := row.Scan(&rca.PageID, &rca.Symptoms, &rca.RootCause, &rca.Resolution, &incidentDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning parsed rca: %w", err)
	}
	if incidentDate.Valid {
		t := incidentDate.Time
		rca.IncidentDate = &t
	}
	return &rca, nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunks stores chunks for a page in one transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, chunks []domain.EmbeddedChunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embedded_chunks (id, page_id, chunk_index, chunk_type, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_id, chunk_index, chunk_type) DO UPDATE SET
			id = excluded.id,
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.PageID, chunk.ChunkIndex,
			string(chunk.ChunkType), chunk.Content, embeddingBlob, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a page ordered by type then index.
func (s *chunkStore) GetChunks(ctx context.Context, pageID string) ([]domain.EmbeddedChunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, page_id, chunk_index, chunk_type, content, embedding, metadata
		FROM embedded_chunks WHERE page_id = ?
		ORDER BY chunk_type, chunk_index
	`, pageID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// DeleteChunks removes every chunk belonging to a page.
func (s *chunkStore) DeleteChunks(ctx context.Context, pageID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM embedded_chunks WHERE page_id = ?", pageID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// NearestNeighbors returns up to limit chunks within maxDistance of query,
// ordered by ascending cosine distance. Candidate vectors are decoded and
// ranked in Go; the SQL side only applies the metadata filters.
func (s *chunkStore) NearestNeighbors(ctx context.Context, query []float32, maxDistance float64, filter driven.NeighborFilter, limit int) ([]driven.Neighbor, error) {
	sqlQuery := `
		SELECT c.id, c.page_id, c.chunk_index, c.chunk_type, c.content, c.embedding, c.metadata
		FROM embedded_chunks c`
	var clauses []string
	var args []any

	if filter.SpaceKey != "" {
		sqlQuery += " JOIN pages p ON p.page_id = c.page_id"
		clauses = append(clauses, "p.space_key = ?")
		args = append(args, filter.SpaceKey)
	}
	if filter.ChunkType != "" {
		clauses = append(clauses, "c.chunk_type = ?")
		args = append(args, string(filter.ChunkType))
	}
	if len(clauses) > 0 {
		sqlQuery += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := s.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	candidates, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}

	var hits []driven.Neighbor
	for _, chunk := range candidates {
		dist, ok := cosineDistance(query, chunk.Embedding)
		if !ok || dist >= maxDistance {
			continue
		}
		hits = append(hits, driven.Neighbor{Chunk: chunk, Distance: dist})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ==================== Sync Run Store ====================

// syncRunStore implements driven.SyncRunStore.
type syncRunStore struct {
	store *Store
}

var _ driven.SyncRunStore = (*syncRunStore)(nil)

// SaveRun stores or updates a run.
func (s *syncRunStore) SaveRun(ctx context.Context, run *domain.SyncRun) error {
	spacesJSON, err := json.Marshal(run.Spaces)
	if err != nil {
		return fmt.Errorf("marshalling spaces: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, sync_type, spaces, pages_fetched, pages_processed,
			pages_failed, status, started_at, completed_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sync_type = excluded.sync_type,
			spaces = excluded.spaces,
			pages_fetched = excluded.pages_fetched,
			pages_processed = excluded.pages_processed,
			pages_failed = excluded.pages_failed,
			status = excluded.status,
			completed_at = excluded.completed_at,
			error_message = excluded.error_message
	`, run.ID, string(run.SyncType), string(spacesJSON), run.PagesFetched,
		run.PagesProcessed, run.PagesFailed, string(run.Status),
		run.StartedAt, nullTime(run.CompletedAt), run.ErrorMessage)

	if err != nil {
		return fmt.Errorf("saving sync run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *syncRunStore) GetRun(ctx context.Context, id string) (*domain.SyncRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, sync_type, spaces, pages_fetched, pages_processed,
			pages_failed, status, started_at, completed_at, error_message
		FROM sync_runs WHERE id = ?
	`, id)

	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sync run: %w", err)
	}
	return run, nil
}

// LatestTerminalRun returns the most recently started terminal run,
// excluding excludeID.
func (s *syncRunStore) LatestTerminalRun(ctx context.Context, excludeID string) (*domain.SyncRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, sync_type, spaces, pages_fetched, pages_processed,
			pages_failed, status, started_at, completed_at, error_message
		FROM sync_runs
		WHERE status IN (?, ?) AND id != ?
		ORDER BY started_at DESC
		LIMIT 1
	`, string(domain.SyncRunCompleted), string(domain.SyncRunFailed), excludeID)

	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sync run: %w", err)
	}
	return run, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineDistance returns 1 - cosine similarity. The second return value is
// false for mismatched dimensions or a zero-magnitude vector.
func cosineDistance(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), true
}

// nullTime maps the zero time onto SQL NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// scanPage scans one page row via the given scan function.
func scanPage(scan func(...any) error) (*domain.Page, error) {
	var page domain.Page
	var tagsJSON, status string
	var lastModified, ingestedAt, parsedAt, embeddedAt sql.NullTime

	if err := scan(&page.PageID, &page.SpaceKey, &page.Title, &page.URL, &tagsJSON,
		&lastModified, &ingestedAt, &parsedAt, &embeddedAt, &status, &page.ErrorMessage); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &page.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	page.Status = domain.PageStatus(status)
	if lastModified.Valid {
		page.LastModified = lastModified.Time
	}
	if ingestedAt.Valid {
		page.IngestedAt = ingestedAt.Time
	}
	if parsedAt.Valid {
		page.ParsedAt = parsedAt.Time
	}
	if embeddedAt.Valid {
		page.EmbeddedAt = embeddedAt.Time
	}
	return &page, nil
}

// scanChunks drains a chunk result set.
func scanChunks(rows *sql.Rows) ([]domain.EmbeddedChunk, error) {
	var chunks []domain.EmbeddedChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.EmbeddedChunk
		var chunkType, metadataJSON string
		var embedding []byte
		if err := rows.Scan(&chunk.ID, &chunk.PageID, &chunk.ChunkIndex,
			&chunkType, &chunk.Content, &embedding, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.ChunkType = domain.ChunkType(chunkType)
		chunk.Embedding = bytesToFloat32Slice(embedding)
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// scanRun scans one sync run row via the given scan function.
func scanRun(scan func(...any) error) (*domain.SyncRun, error) {
	var run domain.SyncRun
	var syncType, status, spacesJSON string
	var completedAt sql.NullTime

	if err := scan(&run.ID, &syncType, &spacesJSON, &run.PagesFetched,
		&run.PagesProcessed, &run.PagesFailed, &status, &run.StartedAt,
		&completedAt, &run.ErrorMessage); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(spacesJSON), &run.Spaces); err != nil {
		return nil, fmt.Errorf("unmarshaling spaces: %w", err)
	}
	run.SyncType = domain.SyncType(syncType)
	run.Status = domain.SyncRunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	return &run, nil
}
