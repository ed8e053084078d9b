package rag

import (
	"strings"
)

// Default chunking configuration, tuned for mixed technical documentation.
const (
	DefaultTargetChunkSize = 1500
	DefaultMaxChunkSize    = 2000
	DefaultChunkOverlap    = 200
)

// Chunker splits extracted page text into bounded, overlap-preserving
// retrieval units. Splitting is paragraph-first with a sentence-level
// fallback for single paragraphs longer than MaxSize.
type Chunker struct {
	TargetSize int
	MaxSize    int
	Overlap    int
}

// NewChunker creates a chunker with the default size parameters.
func NewChunker() *Chunker {
	return &Chunker{
		TargetSize: DefaultTargetChunkSize,
		MaxSize:    DefaultMaxChunkSize,
		Overlap:    DefaultChunkOverlap,
	}
}

// Split chunks text. It is a pure function of the input and the three size
// parameters. Empty input produces no chunks; input at or under TargetSize
// is returned as a single chunk. No returned chunk exceeds MaxSize unless
// it is a single sentence longer than MaxSize, which is returned unsplit.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= c.TargetSize {
		return []string{text}
	}

	var chunks []string
	var current string

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if len(current)+len(paragraph) > c.MaxSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			// Seed the next chunk with the tail of the one just closed
			// so context spanning the boundary stays retrievable.
			overlap := ""
			if c.Overlap > 0 {
				overlap = tail(current, c.Overlap)
			}
			current = overlap + "\n\n" + paragraph
		} else if current != "" {
			current += "\n\n" + paragraph
		} else {
			current = paragraph
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	// A single paragraph can still exceed MaxSize; split those by sentence.
	var final []string
	for _, chunk := range chunks {
		if len(chunk) <= c.MaxSize {
			final = append(final, chunk)
			continue
		}
		final = append(final, c.splitBySentence(chunk)...)
	}

	return final
}

// splitBySentence greedily accumulates sentences up to MaxSize per
// sub-chunk. An individual sentence longer than MaxSize is emitted as-is;
// the chunker never hard-wraps inside a sentence.
func (c *Chunker) splitBySentence(chunk string) []string {
	sentences := splitSentences(chunk)

	var out []string
	var current string
	for _, sentence := range sentences {
		if len(current)+len(sentence) > c.MaxSize && current != "" {
			out = append(out, strings.TrimSpace(current))
			current = sentence
		} else if current != "" {
			current += " " + sentence
		} else {
			current = sentence
		}
	}
	if strings.TrimSpace(current) != "" {
		out = append(out, strings.TrimSpace(current))
	}
	return out
}

// splitSentences cuts text after '.', '!' or '?' followed by whitespace.
// The terminator stays with its sentence; the whitespace run is dropped.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		if i+1 >= len(text) || !isSpace(text[i+1]) {
			continue
		}
		sentences = append(sentences, text[start:i+1])
		i++
		for i < len(text) && isSpace(text[i]) {
			i++
		}
		start = i
		i--
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// tail returns the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
