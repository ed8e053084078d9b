package rag

import (
	"strings"
	"unicode"
)

// leadingEchoPatterns mark lines at the top of a raw answer that are echoes
// of the grounding prompt rather than content.
var leadingEchoPatterns = []string{
	"Use a code block",
	"Keep SQL statements",
	"Don't break SQL",
	"Include all commands",
	"Include ALL commands",
	"Answer format for",
	"CRITICAL INSTRUCTIONS:",
	"PRIMARY SOURCE:",
	"ADDITIONAL SOURCE",
	"Do NOT repeat",
	"Start your answer",
	"Provide a clear, complete answer",
}

// trailingEchoPatterns mark instruction-like or off-topic tails.
var trailingEchoPatterns = []string{
	"<<variable>> The source does not provide",
	"<<variable>>",
	"The source does not provide",
	"I will not include",
	"Do NOT repeat",
	"CRITICAL INSTRUCTIONS",
	"Answer format",
	"PRIMARY SOURCE",
	"ADDITIONAL SOURCE",
	"INSTRUCTIONS:",
}

// instructionFragmentWords flag short lines that look like stray
// instruction fragments rather than answer content.
var instructionFragmentWords = []string{
	"format", "command", "instruction", "source", "answer",
}

var trailingFragmentWords = []string{
	"format", "command", "instruction", "source", "answer", "provide", "include",
}

// CleanAnswer applies the post-processing transforms to raw model output,
// in order: strip leading instruction echoes, strip trailing echoes, then
// re-flow SQL-looking lines into a fenced code block. Each transform is
// independent and individually testable.
func CleanAnswer(raw string) string {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return answer
	}
	answer = StripLeadingEchoes(answer)
	answer = StripTrailingEchoes(answer)
	answer = ReflowSQL(answer)
	return answer
}

// StripLeadingEchoes scans from the top of the answer and drops lines that
// echo the prompt's instructions, or that are short fragments resembling
// instructions, until a line of genuine content is found.
func StripLeadingEchoes(answer string) string {
	lines := strings.Split(answer, "\n")
	start := 0
	for start < len(lines) {
		stripped := strings.TrimSpace(lines[start])
		if stripped == "" {
			start++
			continue
		}
		if matchesPattern(stripped, leadingEchoPatterns) {
			start++
			continue
		}
		if len(stripped) < 50 && containsFragmentWord(stripped, instructionFragmentWords) {
			start++
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

// StripTrailingEchoes removes trailing lines matching the trailing echo
// patterns or resembling short instruction fragments.
func StripTrailingEchoes(answer string) string {
	lines := strings.Split(answer, "\n")
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "" {
			lines = lines[:len(lines)-1]
			continue
		}
		if matchesPattern(last, trailingEchoPatterns) {
			lines = lines[:len(lines)-1]
			continue
		}
		if len(last) < 60 && containsFragmentWord(last, trailingFragmentWords) {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// sqlLineKeywords identify SQL-looking lines worth fencing.
var sqlLineKeywords = []string{
	"create user", "identified by", "default tablespace",
	"grant", "alter user", "connect to", "sql*plus",
}

// sqlAnswerTokens decide whether an answer needs SQL re-flow at all.
var sqlAnswerTokens = []string{"create user", "grant", "identified by"}

// ReflowSQL wraps contiguous SQL-looking lines in a fenced sql code block,
// stripping numbered-list prefixes like "3)" from lines inside the block.
// Answers without SQL-indicative tokens are returned unchanged.
func ReflowSQL(answer string) string {
	if !containsAny(strings.ToLower(answer), sqlAnswerTokens) {
		return answer
	}

	lines := strings.Split(answer, "\n")
	var out []string
	inBlock := false

	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if containsAny(lower, sqlLineKeywords) {
			if !inBlock {
				out = append(out, "```sql")
				inBlock = true
			}
			out = append(out, stripNumberPrefix(line))
			continue
		}
		if inBlock {
			stripped := strings.TrimSpace(line)
			// Blank lines and stray closing parens stay inside the block;
			// the first real non-SQL line closes it.
			if stripped == "" || strings.HasPrefix(stripped, ")") {
				out = append(out, line)
				continue
			}
			out = append(out, "```", line)
			inBlock = false
			continue
		}
		out = append(out, line)
	}
	if inBlock {
		out = append(out, "```")
	}
	return strings.Join(out, "\n")
}

// stripNumberPrefix removes a leading enumeration like "3)" from a line.
func stripNumberPrefix(line string) string {
	stripped := strings.TrimSpace(line)
	if stripped == "" || !unicode.IsDigit(rune(stripped[0])) {
		return line
	}
	idx := strings.Index(stripped[:min(3, len(stripped))], ")")
	if idx < 0 {
		return line
	}
	return strings.TrimSpace(stripped[idx+1:])
}

func matchesPattern(line string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(line, pattern) {
			return true
		}
	}
	return false
}

func containsFragmentWord(line string, words []string) bool {
	return containsAny(strings.ToLower(line), words)
}
