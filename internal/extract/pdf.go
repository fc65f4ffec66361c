package extract

import (
	"context"
	"fmt"
	"os/exec"
)

// CommandRunner executes an external command and returns its stdout.
// Abstracted for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}

// PDF extracts text from PDF files by shelling out to pdftotext (poppler).
type PDF struct {
	runner CommandRunner
}

// NewPDF creates a PDF extractor using the system pdftotext binary.
func NewPDF() *PDF {
	return &PDF{runner: execRunner{}}
}

// NewPDFWithRunner creates a PDF extractor with a custom command runner.
func NewPDFWithRunner(r CommandRunner) *PDF {
	return &PDF{runner: r}
}

// Extensions implements Extractor.
func (p *PDF) Extensions() []string {
	return []string{"pdf"}
}

// Extract converts the PDF to layout-preserving plain text on stdout.
func (p *PDF) Extract(ctx context.Context, path string) (string, error) {
	out, err := p.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
