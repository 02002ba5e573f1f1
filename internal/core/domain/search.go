package domain

// SearchMode selects the retrieval strategy.
type SearchMode string

// Search modes.
const (
	// SearchModeSemantic ranks purely by vector similarity across all chunks.
	SearchModeSemantic SearchMode = "semantic"

	// SearchModeSymptoms restricts matching to SYMPTOMS chunks.
	SearchModeSymptoms SearchMode = "symptoms"

	// SearchModeRootCause restricts matching to ROOT_CAUSE chunks.
	SearchModeRootCause SearchMode = "rootcause"

	// SearchModeHybrid blends vector similarity with a keyword-presence boost.
	SearchModeHybrid SearchMode = "hybrid"
)

// Valid reports whether m is a known search mode.
func (m SearchMode) Valid() bool {
	switch m {
	case SearchModeSemantic, SearchModeSymptoms, SearchModeRootCause, SearchModeHybrid:
		return true
	}
	return false
}

// RankedResult is a scored chunk hydrated with its parent page and
// parsed RCA for presentation.
type RankedResult struct {
	// Chunk is the matched embedded chunk.
	Chunk EmbeddedChunk

	// Page is the parent page metadata.
	Page Page

	// RCA is the parsed RCA for the page, nil if not available.
	RCA *ParsedRCA

	// Score is the combined relevance score used for ranking.
	Score float64
}

// Confidence is the coarse label derived from average result similarity.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Confidence thresholds on average similarity.
const (
	highConfidenceFloor   = 0.85
	mediumConfidenceFloor = 0.75
)

// ClassifyConfidence averages the scores of ranked results and maps the
// average onto a High/Medium/Low label. An empty result set is always Low.
func ClassifyConfidence(results []RankedResult) Confidence {
	if len(results) == 0 {
		return ConfidenceLow
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	avg := sum / float64(len(results))
	switch {
	case avg >= highConfidenceFloor:
		return ConfidenceHigh
	case avg >= mediumConfidenceFloor:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
