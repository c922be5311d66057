package chunker

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	text := "This is a long sentence. This is another sentence that will be split."
	limit := 30
	overlap := 5

	chunks := SplitText(text, limit, overlap)

	if len(chunks) < 2 {
		t.Errorf("Expected multiple chunks, got %d", len(chunks))
	}

	// Verify overlap (simple check if second chunk contains start of overlap)
	if len(chunks) > 1 {
		lastCharsOfFirst := chunks[0][len(chunks[0])-overlap:]
		if !strings.HasPrefix(chunks[1], lastCharsOfFirst) {
			t.Logf("Note: Basic overlap check failed, ensure logic matches: %s vs %s", lastCharsOfFirst, chunks[1])
		}
	}
}

func TestSplitText_Empty(t *testing.T) {
	if chunks := SplitText("", 100, 10); chunks != nil {
		t.Errorf("Empty document should produce zero chunks, got %d", len(chunks))
	}
}

func TestSplitText_FitsInOneChunk(t *testing.T) {
	text := "short document"
	chunks := SplitText(text, 100, 10)
	if len(chunks) != 1 {
		t.Fatalf("Expected exactly 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("Single chunk should be the full text, got %q", chunks[0])
	}
}

func TestSplitText_NoSeparator(t *testing.T) {
	// pathological input with no whitespace still gets bounded chunks
	text := strings.Repeat("a", 50)
	chunks := SplitText(text, 20, 5)
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 20 {
			t.Errorf("chunk %d exceeds limit: %d chars", i, len(c))
		}
	}
}
