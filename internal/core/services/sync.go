package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
	"github.com/opsrca/rcafinder/internal/core/ports/driving"
	"github.com/opsrca/rcafinder/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.IngestionService = (*SyncOrchestrator)(nil)

// SyncOrchestrator drives full and incremental crawls across configured
// spaces, invoking the page pipeline per page and aggregating progress into
// a persisted sync run record.
type SyncOrchestrator struct {
	*PageTracker

	runs driven.SyncRunStore
}

// NewSyncOrchestrator creates a sync orchestrator on top of a page tracker.
func NewSyncOrchestrator(tracker *PageTracker, runs driven.SyncRunStore) *SyncOrchestrator {
	return &SyncOrchestrator{
		PageTracker: tracker,
		runs:        runs,
	}
}

// StartSync persists a RUNNING run and returns it immediately; the crawl
// proceeds on a background goroutine. There is no cancellation primitive:
// a started run proceeds to COMPLETED or FAILED.
func (o *SyncOrchestrator) StartSync(ctx context.Context, opts driving.SyncOptions) (*domain.SyncRun, error) {
	if len(opts.Spaces) == 0 {
		return nil, fmt.Errorf("%w: no spaces given", domain.ErrInvalidInput)
	}
	if opts.SyncType == "" {
		opts.SyncType = domain.SyncTypeFull
	}

	run := &domain.SyncRun{
		ID:        uuid.New().String(),
		SyncType:  opts.SyncType,
		Spaces:    opts.Spaces,
		Status:    domain.SyncRunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := o.runs.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save sync run: %w", err)
	}

	// The crawl outlives the caller's request context.
	go o.runSync(context.WithoutCancel(ctx), run.ID, opts)

	snapshot := *run
	return &snapshot, nil
}

// GetSyncStatus returns the latest persisted snapshot of a run.
func (o *SyncOrchestrator) GetSyncStatus(ctx context.Context, runID string) (*domain.SyncRun, error) {
	run, err := o.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get sync run %s: %w", runID, err)
	}
	return run, nil
}

// runSync executes the crawl and drives the run to a terminal state.
func (o *SyncOrchestrator) runSync(ctx context.Context, runID string, opts driving.SyncOptions) {
	logger.Section("Sync Run")
	logger.Info("Run %s: %s sync of spaces %v", runID, opts.SyncType, opts.Spaces)

	run, err := o.runs.GetRun(ctx, runID)
	if err != nil {
		logger.Warn("Run %s vanished before start: %v", runID, err)
		return
	}

	crawlErr := o.crawl(ctx, run, opts)

	if crawlErr != nil {
		run.Status = domain.SyncRunFailed
		run.ErrorMessage = crawlErr.Error()
		logger.Warn("Run %s failed: %v", runID, crawlErr)
	} else {
		run.Status = domain.SyncRunCompleted
		logger.Info("Run %s complete: fetched=%d processed=%d failed=%d",
			runID, run.PagesFetched, run.PagesProcessed, run.PagesFailed)
	}
	run.CompletedAt = time.Now().UTC()

	if err := o.runs.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to persist terminal state of run %s: %v", runID, err)
	}
}

// crawl enumerates pages per space and processes them one at a time. A page
// failure is isolated and counted; an enumeration failure aborts the crawl.
func (o *SyncOrchestrator) crawl(ctx context.Context, run *domain.SyncRun, opts driving.SyncOptions) error {
	watermark, err := o.watermark(ctx, run, opts.SyncType)
	if err != nil {
		return err
	}

	for _, space := range opts.Spaces {
		pages, err := o.fetchSpace(ctx, space, watermark, opts)
		if err != nil {
			return fmt.Errorf("fetch space %s: %w", space, err)
		}

		run.PagesFetched += len(pages)
		o.persistProgress(ctx, run)

		for i := range pages {
			// Pages are processed sequentially, so two attempts for the
			// same page id never interleave within a run.
			if err := o.ingestContent(ctx, &pages[i]); err != nil {
				logger.Warn("Page %s failed: %v", pages[i].ID, err)
				run.PagesFailed++
			} else {
				run.PagesProcessed++
			}
			o.persistProgress(ctx, run)
		}
	}

	return nil
}

// watermark resolves the INCREMENTAL cutoff: the startedAt of the most
// recent terminal run other than this one. With no prior run the sync
// degrades to FULL and the watermark is nil.
//
// Two concurrent incremental runs can read the same stale watermark, or one
// can pick up a run that completed mid-flight; neither case is guarded.
func (o *SyncOrchestrator) watermark(ctx context.Context, run *domain.SyncRun, syncType domain.SyncType) (*time.Time, error) {
	if syncType != domain.SyncTypeIncremental {
		return nil, nil
	}

	prior, err := o.runs.LatestTerminalRun(ctx, run.ID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("No prior run, incremental sync degrades to full")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve watermark: %w", err)
	}

	logger.Debug("Incremental watermark: %s (run %s)", prior.StartedAt, prior.ID)
	return &prior.StartedAt, nil
}

// fetchSpace enumerates the pages a run must attempt for one space.
func (o *SyncOrchestrator) fetchSpace(
	ctx context.Context,
	space string,
	watermark *time.Time,
	opts driving.SyncOptions,
) ([]domain.PageContent, error) {
	if watermark != nil {
		return o.source.FetchModifiedSince(ctx, *watermark, []string{space}, opts.Tags)
	}

	pages, err := o.source.FetchPages(ctx, space, opts.Tags)
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && len(pages) > opts.Limit {
		pages = pages[:opts.Limit]
	}
	return pages, nil
}

// persistProgress commits the run's counters so concurrent status polls
// observe monotonically increasing progress.
func (o *SyncOrchestrator) persistProgress(ctx context.Context, run *domain.SyncRun) {
	if err := o.runs.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to persist progress for run %s: %v", run.ID, err)
	}
}
