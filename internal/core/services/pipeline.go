package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opsrca/rcafinder/internal/chunker"
	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
	"github.com/opsrca/rcafinder/internal/logger"
	"github.com/opsrca/rcafinder/internal/parser"
)

// PageTracker owns the per-page pipeline: fetch, parse, chunk, embed. It is
// the only writer of page lifecycle state.
type PageTracker struct {
	source   driven.DocumentSource
	embedder driven.EmbeddingProvider
	pages    driven.PageStore
	rcas     driven.ParsedRCAStore
	chunks   driven.ChunkStore

	chunkSize    int
	chunkOverlap int
}

// TrackerOption configures a PageTracker.
type TrackerOption func(*PageTracker)

// WithChunking overrides the default chunk size and overlap.
func WithChunking(size, overlap int) TrackerOption {
	return func(t *PageTracker) {
		if size > 0 {
			t.chunkSize = size
		}
		if overlap >= 0 {
			t.chunkOverlap = overlap
		}
	}
}

// NewPageTracker creates a page tracker with default chunking parameters.
func NewPageTracker(
	source driven.DocumentSource,
	embedder driven.EmbeddingProvider,
	pages driven.PageStore,
	rcas driven.ParsedRCAStore,
	chunks driven.ChunkStore,
	opts ...TrackerOption,
) *PageTracker {
	t := &PageTracker{
		source:       source,
		embedder:     embedder,
		pages:        pages,
		rcas:         rcas,
		chunks:       chunks,
		chunkSize:    chunker.DefaultSize,
		chunkOverlap: chunker.DefaultOverlap,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IngestPage fetches a single page irrespective of sync context, (re)creates
// its record in PENDING and runs the processing pipeline. This is the only
// path that exits the ERROR state.
func (t *PageTracker) IngestPage(ctx context.Context, pageID string) error {
	content, err := t.source.FetchPageByID(ctx, pageID)
	if err != nil {
		return fmt.Errorf("fetch page %s: %w", pageID, err)
	}
	return t.ingestContent(ctx, content)
}

// ingestContent (re)creates the page record from fetched content and
// processes it. Used by IngestPage and by the sync orchestrator, which has
// already fetched the content during space enumeration.
func (t *PageTracker) ingestContent(ctx context.Context, content *domain.PageContent) error {
	page := &domain.Page{
		PageID:       content.ID,
		SpaceKey:     content.SpaceKey,
		Title:        content.Title,
		URL:          content.URL,
		Tags:         content.Labels,
		LastModified: content.LastModified,
		IngestedAt:   time.Now().UTC(),
		Status:       domain.PageStatusPending,
	}
	if err := t.pages.SavePage(ctx, page); err != nil {
		return fmt.Errorf("save page %s: %w", page.PageID, err)
	}
	return t.process(ctx, page, content)
}

// ProcessPage reruns parse, chunk and embed for an already-tracked page.
// Returns domain.ErrNotFound if the page has never been ingested. Rerunning
// fully supersedes prior parsed and embedded state: chunk deletion precedes
// chunk insertion, so no orphans survive.
func (t *PageTracker) ProcessPage(ctx context.Context, pageID string) error {
	page, err := t.pages.GetPage(ctx, pageID)
	if err != nil {
		return fmt.Errorf("get page %s: %w", pageID, err)
	}

	content, err := t.source.FetchPageByID(ctx, pageID)
	if err != nil {
		return t.fail(ctx, page, fmt.Errorf("fetch page %s: %w", pageID, err))
	}

	// A reprocessing attempt is a fresh ingestion cycle: it restarts the
	// lifecycle from PENDING regardless of the current state, the same way
	// re-ingesting exits ERROR. This bypasses the transition table on purpose.
	page.Status = domain.PageStatusPending
	page.ErrorMessage = ""

	return t.process(ctx, page, content)
}

// process runs the pipeline stages for a page whose record exists and is in
// PENDING. Any stage failure marks the page ERROR and re-raises.
func (t *PageTracker) process(ctx context.Context, page *domain.Page, content *domain.PageContent) error {
	logger.Debug("Parsing page %s (%s)", page.PageID, page.Title)

	ext := parser.Extract(content.Title, content.Body)

	rca := &domain.ParsedRCA{
		PageID:       page.PageID,
		Symptoms:     ext.Symptoms,
		RootCause:    ext.RootCause,
		Resolution:   ext.Resolution,
		IncidentDate: ext.IncidentDate,
	}
	if err := t.rcas.SaveParsedRCA(ctx, rca); err != nil {
		return t.fail(ctx, page, fmt.Errorf("save parsed RCA: %w", err))
	}

	page.ParsedAt = time.Now().UTC()
	t.setStatus(page, domain.PageStatusParsed)
	if err := t.pages.SavePage(ctx, page); err != nil {
		return t.fail(ctx, page, fmt.Errorf("save page: %w", err))
	}

	// Delete before insert so reprocessing never leaves stale chunks.
	if err := t.chunks.DeleteChunks(ctx, page.PageID); err != nil {
		return t.fail(ctx, page, fmt.Errorf("delete chunks: %w", err))
	}

	if err := t.embedSection(ctx, page.PageID, rca.Symptoms, domain.ChunkTypeSymptoms); err != nil {
		return t.fail(ctx, page, err)
	}
	if err := t.embedSection(ctx, page.PageID, rca.RootCause, domain.ChunkTypeRootCause); err != nil {
		return t.fail(ctx, page, err)
	}

	page.EmbeddedAt = time.Now().UTC()
	t.setStatus(page, domain.PageStatusEmbedded)
	if err := t.pages.SavePage(ctx, page); err != nil {
		return t.fail(ctx, page, fmt.Errorf("save page: %w", err))
	}

	logger.Debug("Page %s embedded", page.PageID)
	return nil
}

// embedSection chunks one section and persists the embedded windows.
// Empty sections are skipped. A window whose embedding came back empty is
// dropped rather than retried; its text stays unsearchable until the page
// is reprocessed.
func (t *PageTracker) embedSection(ctx context.Context, pageID, text string, chunkType domain.ChunkType) error {
	if text == "" {
		return nil
	}

	windows, err := chunker.Chunk(text, t.chunkSize, t.chunkOverlap)
	if err != nil {
		return fmt.Errorf("chunk %s: %w", chunkType, err)
	}
	if len(windows) == 0 {
		return nil
	}

	if t.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	vectors, err := t.embedder.EmbedBatch(ctx, windows)
	if err != nil {
		return fmt.Errorf("%w: embed %s batch: %w", domain.ErrUpstreamFailure, chunkType, err)
	}

	chunks := make([]domain.EmbeddedChunk, 0, len(windows))
	for i, window := range windows {
		if i >= len(vectors) || len(vectors[i]) == 0 {
			logger.Warn("Dropping %s chunk %d of page %s: embedding failed", chunkType, i, pageID)
			continue
		}
		chunks = append(chunks, domain.EmbeddedChunk{
			ID:         uuid.New().String(),
			PageID:     pageID,
			ChunkIndex: i,
			ChunkType:  chunkType,
			Content:    window,
			Embedding:  vectors[i],
			Metadata:   map[string]any{"model": t.embedder.ModelName()},
		})
	}

	if len(chunks) == 0 {
		return nil
	}
	if err := t.chunks.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("save %s chunks: %w", chunkType, err)
	}
	return nil
}

// setStatus applies a lifecycle transition, logging disallowed moves as
// logic errors rather than aborting the pipeline.
func (t *PageTracker) setStatus(page *domain.Page, next domain.PageStatus) {
	if page.Status != next && !page.Status.CanTransition(next) {
		logger.Warn("Invalid page status transition %s -> %s for %s",
			page.Status, next, page.PageID)
	}
	page.Status = next
}

// fail records a page-level failure and re-raises it to the caller.
func (t *PageTracker) fail(ctx context.Context, page *domain.Page, cause error) error {
	t.setStatus(page, domain.PageStatusError)
	page.ErrorMessage = cause.Error()
	if err := t.pages.SavePage(ctx, page); err != nil {
		logger.Warn("Failed to record error state for page %s: %v", page.PageID, err)
	}
	return cause
}
