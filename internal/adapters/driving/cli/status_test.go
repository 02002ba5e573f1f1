package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsrca/rcafinder/internal/core/domain"
)

func TestStatusCmd_Use(t *testing.T) {
	assert.Equal(t, "status [run-id]", statusCmd.Use)
}

func TestStatusCmd_RequiresRunID(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestStatusCmd_PrintsSnapshot(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("status", "run-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Run:       run-1")
	assert.Contains(t, out, "Type:      FULL")
	assert.Contains(t, out, "Fetched:   3")
}

func TestStatusCmd_UnknownRun(t *testing.T) {
	ingest, _, _, cleanup := setupTestServices()
	defer cleanup()
	ingest.statusErr = domain.ErrNotFound

	_, err := executeCommand("status", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
