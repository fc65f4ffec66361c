package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/innovorex/campuskb/internal/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func TestPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("algebra basics"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := NewPlainText().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "algebra basics" {
		t.Errorf("got %q", got)
	}
}

func TestPlainText_StripsBOMAndInvalidBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("algebra\xffbasics")...)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := NewPlainText().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "algebrabasics" {
		t.Errorf("got %q, want BOM and invalid byte removed", got)
	}
	if !utf8.ValidString(got) {
		t.Error("output is not valid UTF-8")
	}
}

func TestPlainText_MissingFile(t *testing.T) {
	_, err := NewPlainText().Extract(context.Background(), "/nonexistent/file.txt")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPDF_RunsPdftotext(t *testing.T) {
	runner := &mockRunner{output: []byte("page one text")}
	p := NewPDFWithRunner(runner)

	got, err := p.Extract(context.Background(), "/uploads/syllabus.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "page one text" {
		t.Errorf("got %q", got)
	}
	if runner.name != "pdftotext" {
		t.Errorf("ran %q, want pdftotext", runner.name)
	}
	if len(runner.args) != 3 || runner.args[2] != "-" {
		t.Errorf("args = %v, want stdout output", runner.args)
	}
}

func TestPDF_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit 1")}
	_, err := NewPDFWithRunner(runner).Extract(context.Background(), "broken.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
}

const docxXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`

func TestDocx(t *testing.T) {
	path := writeZip(t, map[string]string{"word/document.xml": docxXML})

	got, err := NewDocx().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "First paragraph.\nSecond paragraph."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDocx_MissingDocumentXML(t *testing.T) {
	path := writeZip(t, map[string]string{"other.xml": "<x/>"})
	if _, err := NewDocx().Extract(context.Background(), path); err == nil {
		t.Fatal("expected error")
	}
}

func TestDocx_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	if err := os.WriteFile(path, []byte("plain bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDocx().Extract(context.Background(), path); err == nil {
		t.Fatal("expected error")
	}
}

func TestPptx_SlideOrder(t *testing.T) {
	path := writeZip(t, map[string]string{
		"ppt/slides/slide2.xml":  "<p:sld xmlns:p=\"x\" xmlns:a=\"y\"><a:t>beta</a:t></p:sld>",
		"ppt/slides/slide1.xml":  "<p:sld xmlns:p=\"x\" xmlns:a=\"y\"><a:t>alpha</a:t></p:sld>",
		"ppt/slides/slide10.xml": "<p:sld xmlns:p=\"x\" xmlns:a=\"y\"><a:t>gamma</a:t></p:sld>",
		"ppt/notes/note1.xml":    "<p:sld xmlns:p=\"x\"><a:t>ignored</a:t></p:sld>",
	})

	got, err := NewPptx().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "alpha\nbeta\ngamma"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRegistry(t *testing.T) {
	r := Default()

	for _, ext := range []string{"txt", "pdf", "docx", "pptx", "TXT"} {
		if !r.Supported(ext) {
			t.Errorf("expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{"doc", "ppt", "exe"} {
		if r.Supported(ext) {
			t.Errorf("expected %s to be unsupported", ext)
		}
	}

	_, err := r.Extract(context.Background(), "doc", "legacy.doc")
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
