// Package extract turns uploaded files and web pages into page-numbered
// plain text ready for chunking.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// MaxUploadSize is the largest file accepted for ingestion.
	MaxUploadSize = 15 * 1024 * 1024

	// MinDocumentChars is the minimum extracted text length for a
	// document to be worth indexing.
	MinDocumentChars = 200
)

var (
	ErrUnsupportedSource = errors.New("unsupported document type")
	ErrFileTooLarge      = errors.New("file exceeds the upload size limit")
	ErrTooLittleText     = fmt.Errorf("document contains less than %d characters of text", MinDocumentChars)
	ErrExtractionFailed  = errors.New("text extraction failed")
)

// Page is one unit of extracted text with its 1-based page number.
// Formats without true pages get pseudo-pages of roughly fixed size.
type Page struct {
	Number int
	Text   string
}

// SupportedExtensions lists the file extensions the pipeline accepts.
var SupportedExtensions = []string{".pdf", ".docx"}

// ValidateUpload checks a file's name and size before any extraction
// work. limit <= 0 selects MaxUploadSize.
func ValidateUpload(filename string, size, limit int64) error {
	if limit <= 0 {
		limit = MaxUploadSize
	}
	if size > limit {
		return fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, limit)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedSource, ext)
}

// ValidateText enforces the minimum extracted-text requirement across
// all pages of a document.
func ValidateText(pages []Page) error {
	total := 0
	for _, p := range pages {
		total += len(strings.TrimSpace(p.Text))
	}
	if total < MinDocumentChars {
		return ErrTooLittleText
	}
	return nil
}

// splitPseudoPages slices continuous text into pages of roughly
// pageSize characters, breaking at paragraph boundaries when possible.
func splitPseudoPages(text string, pageSize int) []Page {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= pageSize {
		return []Page{{Number: 1, Text: text}}
	}

	var pages []Page
	paragraphs := strings.Split(text, "\n\n")
	var current strings.Builder
	num := 1

	flush := func() {
		page := strings.TrimSpace(current.String())
		if page != "" {
			pages = append(pages, Page{Number: num, Text: page})
			num++
		}
		current.Reset()
	}

	for _, para := range paragraphs {
		if current.Len() > 0 && current.Len()+len(para) > pageSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return pages
}
