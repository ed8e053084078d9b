package rag

import "strings"

// questionLeads are openings that mark a prompt as a question even without
// a question mark.
var questionLeads = []string{
	"what", "how", "where", "when", "why", "who", "which",
	"explain", "describe", "tell me", "show me",
}

// feedbackPhrases mark prompts complaining about a previous answer rather
// than asking something new.
var feedbackPhrases = []string{
	"not complete", "incomplete", "wrong", "incorrect", "not right",
	"doesn't work", "not working", "error", "fix", "help", "answer is not",
}

// PromptKind classifies a raw user prompt before the pipeline runs.
type PromptKind int

const (
	PromptQuestion PromptKind = iota
	PromptFeedback
	PromptOther
)

// ClassifyPrompt triages a prompt into question, feedback, or neither.
// Feedback gets a rephrase suggestion at the session layer instead of a
// retrieval pass. Any string is accepted; unclassifiable input is
// PromptOther and still flows through the pipeline.
func ClassifyPrompt(prompt string) PromptKind {
	lower := strings.ToLower(strings.TrimSpace(prompt))

	isQuestion := strings.Contains(prompt, "?")
	for _, lead := range questionLeads {
		if strings.HasPrefix(lower, lead) {
			isQuestion = true
			break
		}
	}
	if isQuestion {
		return PromptQuestion
	}

	if containsAny(lower, feedbackPhrases) {
		return PromptFeedback
	}
	return PromptOther
}
