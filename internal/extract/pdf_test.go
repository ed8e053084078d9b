package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
}

func (m *mockRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return m.output, m.err
}

func TestPDFExtractSplitsPagesOnFormFeed(t *testing.T) {
	runner := &mockRunner{output: []byte("First page text.\fSecond page text.\fThird page.")}
	extractor := NewPDFExtractorWithRunner(runner)

	pages, err := extractor.Extract(context.Background(), []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "First page text.", pages[0].Text)
	assert.Equal(t, 3, pages[2].Number)
	assert.Equal(t, "Third page.", pages[2].Text)
}

func TestPDFExtractPreservesPageNumbersAcrossBlankPages(t *testing.T) {
	runner := &mockRunner{output: []byte("Page one.\f\fPage three.")}
	extractor := NewPDFExtractorWithRunner(runner)

	pages, err := extractor.Extract(context.Background(), []byte("fake"))
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 3, pages[1].Number)
}

func TestPDFExtractRunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext crashed")}
	extractor := NewPDFExtractorWithRunner(runner)

	_, err := extractor.Extract(context.Background(), []byte("fake"))
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestPagesFromFormFeedsEmptyOutput(t *testing.T) {
	assert.Empty(t, pagesFromFormFeeds(""))
	assert.Empty(t, pagesFromFormFeeds("\f\f\f"))
}
