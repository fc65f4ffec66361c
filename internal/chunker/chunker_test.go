package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplit_Empty(t *testing.T) {
	c := New()
	if got := c.Split(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := c.Split("   \n\t  "); got != nil {
		t.Errorf("expected nil for whitespace input, got %v", got)
	}
}

func TestSplit_ShortText(t *testing.T) {
	c := New(WithSize(10), WithOverlap(2))
	got := c.Split("one two three")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "one two three" {
		t.Errorf("chunk = %q", got[0])
	}
}

func TestSplit_OverlapAndReconstruction(t *testing.T) {
	const size, overlap, total = 50, 10, 173
	c := New(WithSize(size), WithOverlap(overlap))
	chunks := c.Split(makeWords(total))

	step := size - overlap
	var rebuilt []string
	for i, chunk := range chunks {
		words := strings.Fields(chunk)
		if len(words) > size {
			t.Errorf("chunk %d has %d words, max %d", i, len(words), size)
		}
		if i > 0 {
			prev := strings.Fields(chunks[i-1])
			if i < len(chunks) {
				shared := prev[len(prev)-overlap:]
				if len(words) >= overlap && strings.Join(shared, " ") != strings.Join(words[:overlap], " ") {
					t.Errorf("chunk %d does not share %d words with its predecessor", i, overlap)
				}
			}
		}
		// Unique span: everything past the overlap for non-first chunks.
		if i == 0 {
			rebuilt = append(rebuilt, words...)
		} else {
			rebuilt = append(rebuilt, words[overlap:]...)
		}
	}

	if got := strings.Join(rebuilt, " "); got != makeWords(total) {
		t.Error("concatenated unique spans do not reconstruct the input")
	}

	wantChunks := 1 + (total-size+step-1)/step
	if len(chunks) != wantChunks {
		t.Errorf("chunk count = %d, want %d", len(chunks), wantChunks)
	}
}

func TestSplit_WindowBoundaries(t *testing.T) {
	// 1500 words, size 1000, overlap 200: windows start at 0 and 800.
	c := New()
	chunks := c.Split(makeWords(1500))

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	if len(first) != 1000 {
		t.Errorf("first chunk has %d words, want 1000", len(first))
	}
	if len(second) != 700 {
		t.Errorf("second chunk has %d words, want 700", len(second))
	}
	if second[0] != "w800" {
		t.Errorf("second chunk starts at %s, want w800", second[0])
	}
	if second[len(second)-1] != "w1499" {
		t.Errorf("second chunk ends at %s, want w1499", second[len(second)-1])
	}
}

func TestSplit_DegenerateOverlapTerminates(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 5, 5},
		{"overlap exceeds size", 5, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithSize(tt.size), WithOverlap(tt.overlap))
			chunks := c.Split(makeWords(12))
			if len(chunks) == 0 {
				t.Fatal("expected non-empty chunk sequence")
			}
			// Step clamps to 1: one window per start offset until the end.
			if len(chunks) > 12 {
				t.Errorf("chunk count = %d, expected at most one per word", len(chunks))
			}
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	c := New(WithSize(7), WithOverlap(3))
	text := makeWords(40)
	a := c.Split(text)
	b := c.Split(text)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
