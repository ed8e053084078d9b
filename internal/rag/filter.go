package rag

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Thresholds and caps for the relevance filter. The two-tier distance
// cutoff makes the pipeline prefer a plausible but imperfect context over
// silence, except when nothing clears the fallback tier.
const (
	PrimaryDistanceThreshold  = 1.2
	FallbackDistanceThreshold = 1.8

	keywordSafetyDistance   = 0.9
	earlyCandidateDistance  = 1.0
	earlyCandidateWindow    = 5
	backfillRescanWindow    = 15
	backfillMinSurvivors    = 3
	backfillTargetSurvivors = 5
	backfillMaxSurvivors    = 10
	gatedCandidateCap       = 30

	minChunkLength  = 50
	finalContextCap = 15
)

// generalQuestionPhrases mark broad "about this document" questions, which
// are allowed to fall back to weaker matches.
var generalQuestionPhrases = []string{
	"what is this", "what is the", "what does this",
	"what is it about", "about this", "tell me about",
	"what is", "describe this", "explain this",
}

// Filter shrinks retrieval candidates to the final context set: keyword
// gating, then adaptive distance thresholding, then a minimum-length check.
// The stages are deliberately lossy and heuristic.
type Filter struct {
	extractor TermExtractor
	logger    *logrus.Logger
}

// NewFilter creates a filter. A nil extractor selects the default
// heuristic one.
func NewFilter(extractor TermExtractor, logger *logrus.Logger) *Filter {
	if extractor == nil {
		extractor = NewTermExtractor()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Filter{extractor: extractor, logger: logger}
}

// Apply runs the three filter stages over distance-sorted candidates.
// It returns ErrNoRelevantContext when not a single candidate clears the
// fallback threshold; the caller must refuse to answer rather than ground
// an answer in noise.
func (f *Filter) Apply(question string, candidates []RetrievedChunk) ([]RetrievedChunk, error) {
	if len(candidates) == 0 {
		return nil, ErrNoRelevantContext
	}

	gated := f.keywordGate(question, candidates)
	thresholded, err := f.applyThresholds(question, gated)
	if err != nil {
		return nil, err
	}

	kept := make([]RetrievedChunk, 0, len(thresholded))
	for _, chunk := range thresholded {
		if len(chunk.ChunkText) > minChunkLength {
			kept = append(kept, chunk)
		}
	}

	if len(kept) > finalContextCap {
		kept = kept[:finalContextCap]
	}
	sortByDistance(kept)

	f.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"gated":      len(gated),
		"final":      len(kept),
	}).Debug("relevance filter applied")

	return kept, nil
}

// keywordGate keeps candidates with lexical overlap against the question's
// keywords or acronyms, plus close matches that lack overlap. When too few
// survive it backfills from the best original candidates. Questions that
// yield no keywords skip the gate entirely.
func (f *Filter) keywordGate(question string, candidates []RetrievedChunk) []RetrievedChunk {
	keywords := f.extractor.Keywords(question)
	acronyms := f.extractor.Acronyms(question)
	if len(keywords) == 0 && len(acronyms) == 0 {
		return candidates
	}

	kept := make([]RetrievedChunk, 0, len(candidates))
	keptIDs := make(map[string]bool)
	for i, chunk := range candidates {
		switch {
		case matchesKeyword(chunk.ChunkText, keywords):
		case matchesAcronym(chunk.ChunkText, acronyms):
		case chunk.Distance < keywordSafetyDistance:
			// Genuinely close matches may paraphrase without sharing words.
		case i < earlyCandidateWindow && chunk.Distance < earlyCandidateDistance:
		default:
			continue
		}
		kept = append(kept, chunk)
		keptIDs[chunk.ChunkID] = true
	}

	// Backfill only kicks in when the gate left too few survivors. A gate
	// that already kept a handful of lexical matches is trusted as is.
	if len(kept) < backfillMinSurvivors {
		rescan := candidates
		if len(rescan) > backfillRescanWindow {
			rescan = rescan[:backfillRescanWindow]
		}
		for _, chunk := range rescan {
			if keptIDs[chunk.ChunkID] {
				continue
			}
			if matchesKeyword(chunk.ChunkText, keywords) || matchesAcronym(chunk.ChunkText, acronyms) {
				kept = append(kept, chunk)
				keptIDs[chunk.ChunkID] = true
			}
		}

		if len(kept) < backfillTargetSurvivors {
			for _, chunk := range candidates {
				if len(kept) >= backfillMaxSurvivors {
					break
				}
				if keptIDs[chunk.ChunkID] {
					continue
				}
				kept = append(kept, chunk)
				keptIDs[chunk.ChunkID] = true
			}
		}
	}

	if len(kept) > gatedCandidateCap {
		kept = kept[:gatedCandidateCap]
	}
	sortByDistance(kept)
	return kept
}

// applyThresholds keeps candidates under the primary distance cutoff, then
// widens to the fallback cutoff when the primary tier is empty. Nothing
// under the fallback tier means refusal.
func (f *Filter) applyThresholds(question string, candidates []RetrievedChunk) ([]RetrievedChunk, error) {
	good := underThreshold(candidates, PrimaryDistanceThreshold)
	if len(good) > 0 {
		return good, nil
	}

	good = underThreshold(candidates, FallbackDistanceThreshold)
	if len(good) == 0 {
		return nil, ErrNoRelevantContext
	}

	if IsGeneralQuestion(question) {
		f.logger.Debug("general question: using best available matches under fallback threshold")
	} else {
		f.logger.WithField("kept", len(good)).Debug("no strong matches, falling back to weaker tier")
	}
	return good, nil
}

// IsGeneralQuestion reports whether the question is a broad "about this
// document" question rather than a specific one.
func IsGeneralQuestion(question string) bool {
	return containsAny(strings.ToLower(question), generalQuestionPhrases)
}

func matchesKeyword(chunkText string, keywords []string) bool {
	lower := strings.ToLower(chunkText)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// matchesAcronym requires a verbatim, case-sensitive occurrence.
func matchesAcronym(chunkText string, acronyms []string) bool {
	for _, acronym := range acronyms {
		if strings.Contains(chunkText, acronym) {
			return true
		}
	}
	return false
}

func underThreshold(chunks []RetrievedChunk, threshold float64) []RetrievedChunk {
	var out []RetrievedChunk
	for _, chunk := range chunks {
		if chunk.Distance < threshold {
			out = append(out, chunk)
		}
	}
	return out
}

func sortByDistance(chunks []RetrievedChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Distance < chunks[j].Distance
	})
}
