// Package chunker splits extracted document text into overlapping
// word windows for indexing.
package chunker

import "strings"

// DefaultSize is the default number of words per chunk.
const DefaultSize = 1000

// DefaultOverlap is the default number of words shared by consecutive chunks.
const DefaultOverlap = 200

// Chunker splits text into fixed-size overlapping word windows.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithSize sets the window size in words.
func WithSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between consecutive windows in words.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{size: DefaultSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split divides text into windows of size words advancing by size-overlap
// words per step. The advance is clamped to at least 1 so overlap >= size
// still terminates. Blank windows are dropped. Deterministic for any input.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.size - c.overlap
	if step < 1 {
		step = 1
	}

	chunks := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}

	return chunks
}
