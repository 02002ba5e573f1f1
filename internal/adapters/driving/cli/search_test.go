package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsrca/rcafinder/internal/adapters/driven/config/file"
	"github.com/opsrca/rcafinder/internal/core/domain"
)

func rankedFixture() []domain.RankedResult {
	rca := &domain.ParsedRCA{
		PageID:     "p1",
		Symptoms:   "Checkout returned 500s.",
		RootCause:  "Connection pool exhausted.",
		Resolution: "Pool size raised.",
	}
	return []domain.RankedResult{
		{
			Chunk: domain.EmbeddedChunk{
				ID:        "c1",
				PageID:    "p1",
				ChunkType: domain.ChunkTypeSymptoms,
				Content:   "Checkout returned 500s.",
			},
			Page:  domain.Page{PageID: "p1", Title: "Checkout Outage", URL: "https://wiki/p1"},
			RCA:   rca,
			Score: 0.91,
		},
		{
			Chunk: domain.EmbeddedChunk{
				ID:        "c2",
				PageID:    "p1",
				ChunkType: domain.ChunkTypeRootCause,
				Content:   "Connection pool exhausted.",
			},
			Page:  domain.Page{PageID: "p1", Title: "Checkout Outage", URL: "https://wiki/p1"},
			RCA:   rca,
			Score: 0.88,
		},
	}
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_PrintsRankedResults(t *testing.T) {
	_, search, _, cleanup := setupTestServices()
	defer cleanup()
	search.results = rankedFixture()

	out, err := executeCommand("search", "checkout 500 errors")

	require.NoError(t, err)
	assert.Equal(t, "checkout 500 errors", search.lastQuery)
	assert.Equal(t, domain.SearchModeSemantic, search.lastMode)
	assert.Contains(t, out, "[1] Checkout Outage (0.91, SYMPTOMS)")
	assert.Contains(t, out, "Root cause: Connection pool exhausted.")
	assert.Contains(t, out, "Resolution: Pool size raised.")
	assert.Contains(t, out, "https://wiki/p1")
	assert.Contains(t, out, "Confidence: HIGH")
}

func TestSearchCmd_ModeAndTopKFlags(t *testing.T) {
	_, search, _, cleanup := setupTestServices()
	defer cleanup()
	search.results = rankedFixture()

	_, err := executeCommand("search", "--mode", "rootcause", "--top-k", "3", "pool exhausted")

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeRootCause, search.lastMode)
	assert.Equal(t, 3, search.lastTopK)
}

func TestSearchCmd_TopKFromConfig(t *testing.T) {
	_, search, _, cleanup := setupTestServices()
	defer cleanup()
	search.results = rankedFixture()
	require.NoError(t, configStore.Set(file.KeyTopK, 7))

	_, err := executeCommand("search", "pool exhausted")

	require.NoError(t, err)
	assert.Equal(t, 7, search.lastTopK)
}

func TestSearchCmd_NoResults(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("search", "nothing matches this")

	require.NoError(t, err)
	assert.Contains(t, out, "No matching postmortems found.")
}

func TestSearchCmd_Summary(t *testing.T) {
	_, search, gen, cleanup := setupTestServices()
	defer cleanup()
	search.results = rankedFixture()

	out, err := executeCommand("search", "--summary", "checkout 500 errors")

	require.NoError(t, err)
	assert.Equal(t, "checkout 500 errors", gen.lastQuery)
	assert.Len(t, gen.lastPassages, 2)
	assert.Contains(t, out, "Suggested root cause (stub-model):")
	assert.Contains(t, out, "Connection pool exhaustion.")
}

func TestSearchCmd_SummaryError(t *testing.T) {
	_, search, gen, cleanup := setupTestServices()
	defer cleanup()
	search.results = rankedFixture()
	gen.err = errors.New("quota exceeded")

	_, err := executeCommand("search", "--summary", "checkout 500 errors")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate summary")
}

func TestSearchCmd_SearchError(t *testing.T) {
	_, search, _, cleanup := setupTestServices()
	defer cleanup()
	search.err = domain.ErrInvalidInput

	_, err := executeCommand("search", "--mode", "fuzzy", "query")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
