package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Pptx extracts text from OOXML presentations, one slide per paragraph
// block, in slide order.
type Pptx struct{}

// NewPptx creates a PPTX extractor.
func NewPptx() *Pptx {
	return &Pptx{}
}

// Extensions implements Extractor.
func (p *Pptx) Extensions() []string {
	return []string{"pptx"}
}

// Extract opens the file as a ZIP archive and collects all drawing text
// elements from ppt/slides/slide<N>.xml in numeric slide order.
func (p *Pptx) Extract(_ context.Context, path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open pptx archive: %w", err)
	}
	defer reader.Close()

	type slide struct {
		number int
		file   *zip.File
	}
	var slides []slide
	for _, file := range reader.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{number: n, file: file})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var b strings.Builder
	for _, s := range slides {
		content, err := readZipFile(s.file)
		if err != nil {
			return "", fmt.Errorf("read slide %d: %w", s.number, err)
		}
		text := parseSlideXML(content)
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// parseSlideXML walks the slide XML token stream collecting the contents of
// every a:t element. Token scanning avoids modelling the full DrawingML
// schema.
func parseSlideXML(content []byte) string {
	decoder := xml.NewDecoder(strings.NewReader(string(content)))

	var parts []string
	inText := false
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				parts = append(parts, string(t))
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
