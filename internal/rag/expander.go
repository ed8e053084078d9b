package rag

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// ExpansionRule maps trigger phrases to hint phrases. Rules are independent:
// every rule whose trigger matches the question contributes its hints.
type ExpansionRule struct {
	Name     string   `json:"name"`
	Triggers []string `json:"triggers"`
	Hints    []string `json:"hints"`
}

// DefaultExpansionRules covers the question families seen in technical
// documentation corpora. New domains are added here, not in the matcher.
func DefaultExpansionRules() []ExpansionRule {
	return []ExpansionRule{
		{
			Name:     "navigation",
			Triggers: []string{"where", "how to access", "navigate", "go to", "find"},
			Hints: []string{
				"menu navigation", "how to access", "where to find",
				"location in menu", "screen navigation", "menu path",
				"access path", "where to navigate",
			},
		},
		{
			Name: "user-creation",
			Triggers: []string{
				"create user", "create schema", "database user", "privileged user",
				"minimally privileged", "schema creation", "database schema",
				"sql user", "grant privileges", "create database user",
			},
			Hints: []string{
				"database schema", "SQL create user", "grant privileges",
				"database user creation", "SQL commands", "SYSDBA",
				"create user identified by", "default tablespace",
				"grant create view", "connect to database", "SQL*Plus", "database server",
			},
		},
		{
			Name: "connection",
			Triggers: []string{
				"connect to", "database connection", "database server",
				"how to connect", "database access", "sql connection",
			},
			Hints: []string{
				"SQL*Plus", "database connection", "connect as SYS",
				"SYSDBA role", "connection string", "database server", "SQL connection",
			},
		},
		{
			Name: "about-document",
			Triggers: []string{
				"what is this", "what is the", "what does this",
				"what is it about", "about this", "tell me about",
			},
			Hints: []string{
				"overview", "summary", "introduction", "executive summary",
				"document purpose", "what is", "description", "about",
				"white paper", "document content", "main topic", "subject",
			},
		},
		{
			Name:     "explanatory",
			Triggers: []string{"what", "explain", "describe", "tell me about"},
			Hints:    []string{"information details explanation"},
		},
		{
			Name:     "procedural",
			Triggers: []string{"how", "steps", "process", "procedure"},
			Hints:    []string{"steps procedure process method"},
		},
	}
}

// Number of recent turns scanned for context terms, and the per-question
// cap on terms appended from them.
const (
	contextTurnWindow   = 4
	contextTermLimit    = 5
	contextMinWordLen   = 5
	assistantScanPrefix = 200
)

// contextStopWords are excluded when mining user turns for carry-over terms.
var contextStopWords = map[string]bool{
	"about": true, "there": true, "their": true, "these": true, "those": true,
	"which": true, "where": true, "would": true, "could": true, "should": true,
	"please": true, "thanks": true, "question": true, "answer": true,
}

// Expander rewrites a user question into a richer query string using the
// rule table plus terms carried over from recent conversation turns. It is
// a pure rule-evaluation step with no network or index access.
type Expander struct {
	rules  []ExpansionRule
	logger *logrus.Logger
}

// NewExpander creates an expander. A nil rule slice selects the defaults.
func NewExpander(rules []ExpansionRule, logger *logrus.Logger) *Expander {
	if rules == nil {
		rules = DefaultExpansionRules()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Expander{rules: rules, logger: logger}
}

// Expand returns the expanded query and the hint list that produced it.
// When no rule matches and no context term survives, the question is
// returned unchanged.
func (e *Expander) Expand(question string, recentTurns []ConversationTurn) (string, []string) {
	lower := strings.ToLower(question)

	var hints []string
	for _, rule := range e.rules {
		if containsAny(lower, rule.Triggers) {
			hints = append(hints, rule.Hints...)
			e.logger.WithFields(logrus.Fields{
				"rule":  rule.Name,
				"hints": len(rule.Hints),
			}).Debug("expansion rule matched")
		}
	}

	hints = append(hints, e.contextTerms(question, recentTurns)...)

	if len(hints) == 0 {
		return question, nil
	}
	return question + " " + strings.Join(hints, " "), hints
}

// contextTerms mines the most recent turns for terms worth re-emphasising:
// long words from user turns and acronyms from the head of assistant turns,
// kept only when they already appear in the current question. Acronyms must
// appear verbatim; lowercase mentions are a different word.
func (e *Expander) contextTerms(question string, turns []ConversationTurn) []string {
	if len(turns) > contextTurnWindow {
		turns = turns[len(turns)-contextTurnWindow:]
	}

	type candidate struct {
		term    string
		acronym bool
	}

	seen := make(map[string]bool)
	var candidates []candidate
	for _, turn := range turns {
		switch turn.Role {
		case RoleUser:
			for _, word := range splitWords(strings.ToLower(turn.Content)) {
				if len(word) < contextMinWordLen || contextStopWords[word] || seen[word] {
					continue
				}
				seen[word] = true
				candidates = append(candidates, candidate{term: word})
			}
		case RoleAssistant:
			head := turn.Content
			if len(head) > assistantScanPrefix {
				head = head[:assistantScanPrefix]
			}
			for _, acronym := range acronymPattern.FindAllString(head, -1) {
				if seen[acronym] {
					continue
				}
				seen[acronym] = true
				candidates = append(candidates, candidate{term: acronym, acronym: true})
			}
		}
	}

	lower := strings.ToLower(question)
	var kept []string
	for _, c := range candidates {
		if c.acronym {
			if !strings.Contains(question, c.term) {
				continue
			}
		} else if !strings.Contains(lower, c.term) {
			continue
		}
		kept = append(kept, c.term)
		if len(kept) == contextTermLimit {
			break
		}
	}
	return kept
}
