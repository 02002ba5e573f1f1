// Package chunker splits section text into overlapping fixed-size windows
// sized for embedding.
package chunker

import (
	"fmt"

	"github.com/opsrca/rcafinder/internal/core/domain"
)

// DefaultSize is the default number of characters per chunk.
const DefaultSize = 800

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 150

// Chunk cuts text into a deterministic sliding window: window i starts at
// i*(size-overlap) and spans size characters, clipped to the text length.
// Requires 0 <= overlap < size and size > 0; violations fail fast with
// domain.ErrInvalidChunking. Empty input produces zero chunks.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", domain.ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must satisfy 0 <= overlap < size %d",
			domain.ErrInvalidChunking, overlap, size)
	}
	if text == "" {
		return nil, nil
	}

	step := size - overlap
	chunks := make([]string, 0, len(text)/step+1)

	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}

	return chunks, nil
}
