package rag

import (
	"regexp"
	"strings"
)

// TermExtractor pulls keywords and acronyms out of a question. The default
// implementation is deliberately heuristic (substring and case checks, not
// real tokenization); it sits behind this interface so a proper tokenizer
// can replace it without touching the pipeline contracts.
type TermExtractor interface {
	// Keywords returns lower-cased question words longer than 3 characters
	// with stop-words removed.
	Keywords(question string) []string
	// Acronyms returns ALL-CAPS tokens found in the original-case question.
	Acronyms(question string) []string
}

// questionStopWords are filler words excluded from keyword matching.
var questionStopWords = map[string]bool{
	"what": true, "how": true, "where": true, "when": true, "why": true,
	"who": true, "which": true, "this": true, "that": true, "these": true,
	"those": true, "the": true, "and": true, "for": true, "are": true,
	"was": true, "were": true, "with": true, "from": true, "does": true,
	"about": true, "will": true, "would": true, "could": true, "should": true,
	"can": true, "you": true, "your": true, "tell": true, "show": true,
	"give": true, "please": true, "explain": true, "describe": true,
	"have": true, "has": true, "into": true, "them": true, "there": true,
}

var acronymPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,}\b`)

// heuristicExtractor is the default TermExtractor.
type heuristicExtractor struct{}

// NewTermExtractor returns the default heuristic extractor.
func NewTermExtractor() TermExtractor {
	return heuristicExtractor{}
}

func (heuristicExtractor) Keywords(question string) []string {
	var keywords []string
	for _, word := range splitWords(strings.ToLower(question)) {
		if len(word) <= 3 || questionStopWords[word] {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

func (heuristicExtractor) Acronyms(question string) []string {
	return acronymPattern.FindAllString(question, -1)
}

// splitWords breaks text on anything that is not a letter or digit.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9')
	})
}

// containsAny reports whether the lower-cased haystack contains any of the
// given lower-cased phrases as a substring.
func containsAny(haystack string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}
