package ingestion

import (
	"errors"
	"strings"
	"testing"
)

func TestNewChunkerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "zero size", size: 0, overlap: 0},
		{name: "negative size", size: -10, overlap: 0},
		{name: "negative overlap", size: 100, overlap: -1},
		{name: "overlap equals size", size: 100, overlap: 100},
		{name: "overlap exceeds size", size: 100, overlap: 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, tt.overlap)
			if !errors.Is(err, ErrInvalidChunking) {
				t.Fatalf("Expected ErrInvalidChunking, got %v", err)
			}
		})
	}
}

func TestSplitTextShortInput(t *testing.T) {
	chunker, err := NewChunker(100, 20)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	chunks := chunker.SplitText("short text")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "short text" {
		t.Fatalf("Expected chunk to equal input, got %q", chunks[0])
	}

	if got := chunker.SplitText(""); got != nil {
		t.Fatalf("Expected no chunks for empty input, got %d", len(got))
	}
}

func TestSplitTextOverlapAndCoverage(t *testing.T) {
	chunker, err := NewChunker(10, 3)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := chunker.SplitText(text)

	for i, chunk := range chunks {
		if len(chunk) == 0 {
			t.Fatalf("Chunk %d is empty", i)
		}
		if len(chunk) > 10 {
			t.Fatalf("Chunk %d exceeds window size: %q", i, chunk)
		}
	}

	// Each chunk begins with the last 3 characters of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-3:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Fatalf("Chunk %d does not overlap predecessor: %q vs %q", i, chunks[i], prev)
		}
	}

	// Stitching chunks back together (dropping each overlap) restores the input.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		rebuilt.WriteString(chunks[i][3:])
	}
	if rebuilt.String() != text {
		t.Fatalf("Reconstruction mismatch: %q", rebuilt.String())
	}
}

func TestSplitTextChunkCount(t *testing.T) {
	chunker, err := NewChunker(1000, 200)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	text := strings.Repeat("a", 2400)
	chunks := chunker.SplitText(text)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks for 2400 characters, got %d", len(chunks))
	}
}

func TestSplitTextMultibyte(t *testing.T) {
	chunker, err := NewChunker(5, 1)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	text := strings.Repeat("ö", 12)
	chunks := chunker.SplitText(text)
	for i, chunk := range chunks {
		if strings.ContainsRune(chunk, '�') {
			t.Fatalf("Chunk %d split a multi-byte character: %q", i, chunk)
		}
	}

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		rebuilt.WriteString(string([]rune(chunks[i])[1:]))
	}
	if rebuilt.String() != text {
		t.Fatalf("Reconstruction mismatch: %q", rebuilt.String())
	}
}
