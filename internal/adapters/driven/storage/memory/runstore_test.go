package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsrca/rcafinder/internal/core/domain"
)

func TestSyncRunStore_SaveAndGet(t *testing.T) {
	store := NewSyncRunStore()
	ctx := context.Background()

	run := &domain.SyncRun{
		ID:        "run-1",
		SyncType:  domain.SyncTypeFull,
		Spaces:    []string{"OPS"},
		Status:    domain.SyncRunRunning,
		StartedAt: time.Now(),
	}
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncRunRunning, got.Status)
	assert.Equal(t, []string{"OPS"}, got.Spaces)
}

func TestSyncRunStore_SaveRun_CopiesSpaces(t *testing.T) {
	store := NewSyncRunStore()
	ctx := context.Background()

	spaces := []string{"OPS"}
	require.NoError(t, store.SaveRun(ctx, &domain.SyncRun{ID: "run-1", Spaces: spaces}))
	spaces[0] = "MUTATED"

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"OPS"}, got.Spaces)
}

func TestSyncRunStore_GetRun_NotFound(t *testing.T) {
	store := NewSyncRunStore()

	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncRunStore_LatestTerminalRun(t *testing.T) {
	store := NewSyncRunStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.SaveRun(ctx, &domain.SyncRun{
		ID: "old", Status: domain.SyncRunCompleted, StartedAt: base.Add(-2 * time.Hour),
	}))
	require.NoError(t, store.SaveRun(ctx, &domain.SyncRun{
		ID: "newer", Status: domain.SyncRunFailed, StartedAt: base.Add(-1 * time.Hour),
	}))
	require.NoError(t, store.SaveRun(ctx, &domain.SyncRun{
		ID: "running", Status: domain.SyncRunRunning, StartedAt: base,
	}))

	latest, err := store.LatestTerminalRun(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "newer", latest.ID)
}

func TestSyncRunStore_LatestTerminalRun_ExcludesSelf(t *testing.T) {
	store := NewSyncRunStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.SaveRun(ctx, &domain.SyncRun{
		ID: "old", Status: domain.SyncRunCompleted, StartedAt: base.Add(-2 * time.Hour),
	}))
	require.NoError(t, store.SaveRun(ctx, &domain.SyncRun{
		ID: "self", Status: domain.SyncRunCompleted, StartedAt: base,
	}))

	latest, err := store.LatestTerminalRun(ctx, "self")
	require.NoError(t, err)
	assert.Equal(t, "old", latest.ID)
}

func TestSyncRunStore_LatestTerminalRun_NoneFound(t *testing.T) {
	store := NewSyncRunStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, &domain.SyncRun{ID: "running", Status: domain.SyncRunRunning}))

	_, err := store.LatestTerminalRun(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
