package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Context breadth per synthesis mode.
const (
	stepsModeContextSize    = 7
	standardModeContextSize = 1

	defaultMaxAnswerTokens = 1500
)

// completeStepsPhrases flag questions asking for a full procedure.
var completeStepsPhrases = []string{
	"complete steps", "all steps", "full steps", "entire process",
	"complete process", "all the steps", "step by step",
}

// sqlQuestionPhrases flag questions about SQL or credential provisioning.
var sqlQuestionPhrases = []string{
	"sql", "create user", "grant", "database user", "schema",
	"privileges", "minimally privileged", "sql commands",
}

// sqlChunkKeywords identify context chunks carrying SQL statements; those
// are promoted to the front of the context in steps/SQL mode.
var sqlChunkKeywords = []string{
	"create user", "grant", "identified by", "tablespace", "alter user", "sql*plus",
}

// stopSequences truncate known prompt-echo and off-topic continuation
// patterns at the decoding stage, before post-processing ever sees them.
var stopSequences = []string{
	"\n\nIf you are running",
	"\nTo create the workspace",
	"\nEnable Edition-Based Redefinition",
	"\nCreate a workspace",
	"\nAlter the APEX schema",
	"\nRun the application",
	"\n<<variable>>",
	"\nThe source does not provide",
	"Do NOT repeat",
	"CRITICAL INSTRUCTIONS",
	"Answer format",
}

// Synthesizer builds a grounding prompt from the top context chunks,
// invokes the generation backend with deterministic decoding, and cleans
// the raw output. It never retries generation on a low-quality answer;
// cleanup is purely textual.
type Synthesizer struct {
	generator Generator
	maxTokens int
	logger    *logrus.Logger
}

// NewSynthesizer creates a synthesizer. maxTokens <= 0 selects the default.
func NewSynthesizer(generator Generator, maxTokens int, logger *logrus.Logger) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = defaultMaxAnswerTokens
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Synthesizer{generator: generator, maxTokens: maxTokens, logger: logger}
}

// Synthesize answers the question from the given context chunks. It fails
// with ErrEmptyContext when context is empty and ErrGenerationUnavailable
// when the backend cannot be reached.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, contextChunks []RetrievedChunk) (string, error) {
	if len(contextChunks) == 0 {
		return "", ErrEmptyContext
	}

	// Callers hand over distance-sorted context already; re-sort anyway so
	// a misbehaving caller cannot demote the best chunk.
	chunks := make([]RetrievedChunk, len(contextChunks))
	copy(chunks, contextChunks)
	sortByDistance(chunks)

	stepsMode := isStepsOrSQLQuestion(question)
	if stepsMode {
		if len(chunks) > stepsModeContextSize {
			chunks = chunks[:stepsModeContextSize]
		}
		chunks = promoteSQLChunks(chunks)
	} else {
		chunks = chunks[:standardModeContextSize]
	}

	prompt := buildPrompt(question, chunks, stepsMode)

	s.logger.WithFields(logrus.Fields{
		"steps_mode": stepsMode,
		"context":    len(chunks),
	}).Debug("invoking generation backend")

	raw, err := s.generator.Generate(ctx, prompt, GenerateOptions{
		MaxTokens:     s.maxTokens,
		Temperature:   0.0,
		TopP:          0.9,
		RepeatPenalty: 1.2,
		Stop:          stopSequences,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	return CleanAnswer(raw), nil
}

// isStepsOrSQLQuestion selects the broader-context mode for procedural or
// credential-provisioning questions.
func isStepsOrSQLQuestion(question string) bool {
	lower := strings.ToLower(question)
	return containsAny(lower, completeStepsPhrases) || containsAny(lower, sqlQuestionPhrases)
}

// promoteSQLChunks reorders context so chunks containing SQL-statement
// vocabulary come first, preserving relative order within each group.
func promoteSQLChunks(chunks []RetrievedChunk) []RetrievedChunk {
	sort.SliceStable(chunks, func(i, j int) bool {
		return hasSQLKeywords(chunks[i].ChunkText) && !hasSQLKeywords(chunks[j].ChunkText)
	})
	return chunks
}

func hasSQLKeywords(text string) bool {
	return containsAny(strings.ToLower(text), sqlChunkKeywords)
}

// buildPrompt labels the best chunk as the primary source and any further
// chunks as additional sources, embeds the formatting instructions, and
// appends the literal question.
func buildPrompt(question string, chunks []RetrievedChunk, stepsMode bool) string {
	var b strings.Builder

	b.WriteString("You are a helpful documentation assistant. Answer the user's question using the source information provided below.\n\n")
	b.WriteString("SOURCE INFORMATION:\n")

	if stepsMode {
		for i, chunk := range chunks {
			if i == 0 {
				fmt.Fprintf(&b, "\n=== PRIMARY SOURCE - MOST RELEVANT (Page %d, %s) ===\n", chunk.PageNumber, chunk.DocName)
			} else {
				fmt.Fprintf(&b, "\n=== ADDITIONAL SOURCE %d (Page %d, %s) ===\n", i+1, chunk.PageNumber, chunk.DocName)
			}
			b.WriteString(chunk.ChunkText)
			fmt.Fprintf(&b, "\n=== END SOURCE %d ===\n", i+1)
		}
	} else {
		chunk := chunks[0]
		fmt.Fprintf(&b, "\n=== PRIMARY SOURCE - MOST RELEVANT (Page %d) ===\n", chunk.PageNumber)
		b.WriteString(chunk.ChunkText)
		b.WriteString("\n=== END PRIMARY SOURCE ===\n")
	}

	b.WriteString("\nINSTRUCTIONS:\n")
	if stepsMode {
		b.WriteString("- Use the source information above to provide a complete answer\n")
	} else {
		b.WriteString("- Use the source information above to answer the question completely\n")
	}
	b.WriteString("- If the source contains SQL commands, include them in code blocks (```sql ... ```)\n")
	b.WriteString("- If the source contains steps, list them in order\n")
	if stepsMode {
		b.WriteString("- Combine information from multiple sources if needed\n")
	} else {
		b.WriteString("- Provide a clear, complete answer\n")
	}
	b.WriteString("- Do NOT repeat these instructions in your answer\n")
	b.WriteString("- Start your answer directly without preamble\n")

	fmt.Fprintf(&b, "\nUSER QUESTION: %s\n", question)
	b.WriteString("\nProvide a clear, complete answer based on the source(s) above. Do NOT repeat these instructions. Start your answer directly:")

	return b.String()
}
