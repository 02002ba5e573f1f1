package domain

import "time"

// SyncType selects between a full crawl and a watermark-based delta.
type SyncType string

// Sync types.
const (
	SyncTypeFull        SyncType = "FULL"
	SyncTypeIncremental SyncType = "INCREMENTAL"
)

// SyncRunStatus is the lifecycle state of a sync run.
type SyncRunStatus string

// Sync run states. A run becomes terminal (COMPLETED or FAILED) exactly once.
const (
	SyncRunRunning   SyncRunStatus = "RUNNING"
	SyncRunCompleted SyncRunStatus = "COMPLETED"
	SyncRunFailed    SyncRunStatus = "FAILED"
)

// SyncRun records one invocation of the sync orchestrator. Counters are
// persisted after each page so concurrent status polls observe monotonically
// increasing progress.
type SyncRun struct {
	// ID is the run's unique identifier.
	ID string

	// SyncType is FULL or INCREMENTAL.
	SyncType SyncType

	// Spaces are the space keys targeted by this run.
	Spaces []string

	// PagesFetched is the number of pages enumerated from the source.
	PagesFetched int

	// PagesProcessed is the number of pages fully embedded.
	PagesProcessed int

	// PagesFailed is the number of pages that failed inside page isolation.
	PagesFailed int

	// Status is the run lifecycle state.
	Status SyncRunStatus

	// StartedAt is when the run was created.
	StartedAt time.Time

	// CompletedAt is when the run became terminal, zero while RUNNING.
	CompletedAt time.Time

	// ErrorMessage holds the failure message when Status is FAILED.
	ErrorMessage string
}

// Terminal reports whether the run has reached a final state.
func (r SyncRun) Terminal() bool {
	return r.Status == SyncRunCompleted || r.Status == SyncRunFailed
}
