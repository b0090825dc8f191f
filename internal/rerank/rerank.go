package rerank

import (
	"context"
	"fmt"
	"strings"

	"github.com/bugscope/backend/internal/discovery"
	"github.com/bugscope/backend/internal/llm"
	"github.com/bugscope/backend/internal/models"
)

// Blend weights: one unreliable model call may shift a score but never
// owns it.
const (
	newScoreWeight = 0.7
	oldScoreWeight = 0.3
)

// Reranker asks the model to re-score ranked candidates. Strictly
// best-effort: any failure returns the input ranking unchanged.
type Reranker struct {
	generator llm.Generator
}

func NewReranker(generator llm.Generator) *Reranker {
	return &Reranker{generator: generator}
}

type rerankedEntry struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// Rerank blends model scores (0-100) into the existing ranking. Timeouts,
// non-JSON output, and unknown paths all degrade to the original order.
func (r *Reranker) Rerank(ctx context.Context, title, body string, candidates []models.FileCandidate) []models.FileCandidate {
	if r.generator == nil || len(candidates) == 0 {
		return candidates
	}

	var sb strings.Builder
	sb.WriteString("You are ranking source files by relevance to a bug report.\n\n")
	fmt.Fprintf(&sb, "Bug report title: %s\n\nBug report body:\n%s\n\nFiles:\n", title, clip(body, 2000))
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s (current score %.1f, evidence: %s)\n", c.Path, c.RelevanceScore, strings.Join(c.MatchedKeywords, ", "))
	}
	sb.WriteString("\nReturn a JSON array of {\"path\": string, \"score\": number 0-100} covering every file.")

	var entries []rerankedEntry
	if err := r.generator.GenerateStructured(ctx, sb.String(), &entries, llm.StructuredOptions{MaxTokens: 1024}); err != nil {
		return candidates
	}
	if len(entries) == 0 {
		return candidates
	}

	scoreByPath := make(map[string]float64, len(entries))
	for _, e := range entries {
		if e.Score < 0 {
			e.Score = 0
		}
		if e.Score > 100 {
			e.Score = 100
		}
		scoreByPath[e.Path] = e.Score
	}

	blended := make([]models.FileCandidate, len(candidates))
	copy(blended, candidates)
	for i := range blended {
		if newScore, ok := scoreByPath[blended[i].Path]; ok {
			blended[i].RelevanceScore = newScore*newScoreWeight + blended[i].RelevanceScore*oldScoreWeight
			blended[i].AddKeyword("llm-reranked")
		}
	}
	discovery.SortByRelevance(blended)
	return blended
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
