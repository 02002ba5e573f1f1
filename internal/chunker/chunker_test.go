package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/opsrca/rcafinder/internal/core/domain"
)

func TestChunk_EmptyInput(t *testing.T) {
	chunks, err := Chunk("", DefaultSize, DefaultOverlap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty input, got %d", len(chunks))
	}
}

func TestChunk_InvalidParameters(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Chunk("some text", tc.size, tc.overlap)
			if !errors.Is(err, domain.ErrInvalidChunking) {
				t.Errorf("expected ErrInvalidChunking, got %v", err)
			}
		})
	}
}

func TestChunk_SmallInput(t *testing.T) {
	text := "DB connection pool exhausted"
	chunks, err := Chunk(text, 800, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("expected chunk to equal input text")
	}
}

func TestChunk_WindowGeometry(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks, err := Chunk(text, 100, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Starts at 0, 80, 160, 240.
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:2] {
		if len(c) != 100 {
			t.Errorf("chunk %d: expected 100 chars, got %d", i, len(c))
		}
	}
	// Windows starting at 160 and 240 are clipped to the text length.
	if len(chunks[2]) != 90 {
		t.Errorf("chunk 2: expected 90 chars, got %d", len(chunks[2]))
	}
	if len(chunks[3]) != 10 {
		t.Errorf("last chunk: expected 10 chars, got %d", len(chunks[3]))
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("incident postmortem ", 100)

	first, err := Chunk(text, 120, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Chunk(text, 120, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunk_CoversWholeText(t *testing.T) {
	text := strings.Repeat("xyz", 137)
	size, overlap := 50, 10
	chunks, err := Chunk(text, size, overlap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	step := size - overlap
	for i, c := range chunks {
		start := i * step
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		if c != text[start:end] {
			t.Errorf("chunk %d does not match window [%d:%d]", i, start, end)
		}
	}

	// The last chunk's end offset equals the text length.
	lastStart := (len(chunks) - 1) * step
	if lastStart+len(chunks[len(chunks)-1]) != len(text) {
		t.Errorf("last chunk does not end at text length")
	}
	// No window starts at or past the end.
	if len(chunks)*step-step >= len(text) {
		t.Errorf("a window started past the end of the text")
	}
}

func TestChunk_OverlapContent(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks, err := Chunk(text, 10, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Starts at 0, 6, 12, 18, 24.
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	if chunks[0] != "abcdefghij" || chunks[1] != "ghijklmnop" {
		t.Errorf("overlap windows wrong: %q %q", chunks[0], chunks[1])
	}
	if chunks[4] != "yz" {
		t.Errorf("expected final clipped chunk %q, got %q", "yz", chunks[4])
	}
}
