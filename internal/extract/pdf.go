package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner executes an external command and returns its stdout.
// It exists so tests can substitute canned output for pdftotext.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFExtractor extracts page text from PDF files via the poppler
// pdftotext tool.
type PDFExtractor struct {
	runner CommandRunner
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{runner: execRunner{}}
}

// NewPDFExtractorWithRunner is used by tests.
func NewPDFExtractorWithRunner(runner CommandRunner) *PDFExtractor {
	return &PDFExtractor{runner: runner}
}

// Available reports whether pdftotext is installed.
func (e *PDFExtractor) Available() bool {
	_, err := exec.LookPath("pdftotext")
	return err == nil
}

// Extract converts PDF bytes into per-page text. pdftotext emits a
// form feed between pages, which preserves real page numbers.
func (e *PDFExtractor) Extract(ctx context.Context, content []byte) ([]Page, error) {
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	tmp.Close()

	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext: %v", ErrExtractionFailed, err)
	}

	return pagesFromFormFeeds(string(out)), nil
}

func pagesFromFormFeeds(text string) []Page {
	var pages []Page
	for i, raw := range strings.Split(text, "\f") {
		page := strings.TrimSpace(raw)
		if page == "" {
			continue
		}
		pages = append(pages, Page{Number: i + 1, Text: page})
	}
	return pages
}
