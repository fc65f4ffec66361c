package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainText reads text files as UTF-8.
type PlainText struct{}

// NewPlainText creates a plain text extractor.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Extensions implements Extractor.
func (p *PlainText) Extensions() []string {
	return []string{"txt"}
}

// Extract reads the whole file as UTF-8 text. A leading byte order mark is
// stripped and invalid byte sequences are dropped so they never reach the
// chunker or the embedding provider.
func (p *PlainText) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), ""), nil
}
