package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Docx extracts text from OOXML word processing documents.
type Docx struct{}

// NewDocx creates a DOCX extractor.
func NewDocx() *Docx {
	return &Docx{}
}

// Extensions implements Extractor.
func (d *Docx) Extensions() []string {
	return []string{"docx"}
}

// Extract opens the file as a ZIP archive and pulls paragraph text from
// word/document.xml.
func (d *Docx) Extract(_ context.Context, path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		return parseDocumentXML(content), nil
	}

	return "", fmt.Errorf("docx has no word/document.xml")
}

// wordDocument mirrors the relevant structure of word/document.xml.
type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text []xmlText `xml:"t"`
}

type xmlText struct {
	Content string `xml:",chardata"`
}

func parseDocumentXML(content []byte) string {
	var doc wordDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var b strings.Builder
	for _, para := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, run := range para.Runs {
			for _, t := range run.Text {
				line.WriteString(t.Content)
			}
		}
		if line.Len() > 0 {
			b.WriteString(line.String())
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read zip entry: %w", err)
	}
	return data, nil
}
