package rerank

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bugscope/backend/internal/discovery"
	"github.com/bugscope/backend/internal/llm"
	"github.com/bugscope/backend/internal/models"
)

const (
	// Novel model-inferred files enter the ranking at confidence×100
	// scaled by this multiplier.
	inferredMultiplier = 1.2

	// Pattern-discovery complements only join above this score and below
	// this count.
	complementMinScore = 20
	complementMaxCount = 5
)

// Intent is the model's reading of what the report is about.
type Intent struct {
	Summary     string         `json:"summary"`
	Keywords    []string       `json:"keywords,omitempty"`
	LikelyFiles []InferredFile `json:"likelyFiles,omitempty"`
}

// InferredFile is a model guess at a relevant file, with its evidence.
type InferredFile struct {
	Path       string   `json:"path"`
	Reason     string   `json:"reason,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Confidence float64  `json:"confidence"`
}

// InferIntent asks the model which files the report likely concerns.
// Best-effort: callers treat a nil result as "no enhancement".
func InferIntent(ctx context.Context, generator llm.Generator, title, body string) (*Intent, error) {
	if generator == nil {
		return nil, fmt.Errorf("no generator configured")
	}

	prompt := fmt.Sprintf(
		"Read this bug report and infer what part of the codebase it concerns.\n\n"+
			"Title: %s\n\nBody:\n%s\n\n"+
			"Return JSON: {\"summary\": string, \"keywords\": [string], "+
			"\"likelyFiles\": [{\"path\": string, \"reason\": string, \"keywords\": [string], \"confidence\": number 0-1}]}",
		title, clip(body, 3000))

	var intent Intent
	if err := generator.GenerateStructured(ctx, prompt, &intent, llm.StructuredOptions{MaxTokens: 768}); err != nil {
		return nil, err
	}
	return &intent, nil
}

// MergeInferred folds model-inferred files into the candidate list, keyed
// by resolved path. An already-present file keeps its score and gains the
// inferred keyword evidence; a novel file that exists on disk is added at
// confidence×100×multiplier with an "llm-inferred" tag.
func MergeInferred(candidates []models.FileCandidate, inferred []InferredFile, root string) []models.FileCandidate {
	byPath := make(map[string]int, len(candidates))
	for i, c := range candidates {
		byPath[filepath.Clean(c.Path)] = i
	}

	for _, inf := range inferred {
		if inf.Path == "" {
			continue
		}
		resolved := inf.Path
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(root, resolved)
		}
		resolved = filepath.Clean(resolved)

		if idx, ok := byPath[resolved]; ok {
			// Union evidence only; the existing score is never re-summed.
			for _, kw := range inf.Keywords {
				candidates[idx].AddKeyword(kw)
			}
			candidates[idx].AddKeyword("llm-intent")
			continue
		}

		info, err := os.Stat(resolved)
		if err != nil || info.IsDir() {
			continue
		}
		candidate := models.FileCandidate{
			Path:           resolved,
			Size:           info.Size(),
			RelevanceScore: inf.Confidence * 100 * inferredMultiplier,
		}
		candidate.AddKeyword("llm-inferred")
		for _, kw := range inf.Keywords {
			candidate.AddKeyword(kw)
		}
		byPath[resolved] = len(candidates)
		candidates = append(candidates, candidate)
	}

	discovery.SortByRelevance(candidates)
	return candidates
}

// AddComplements merges pattern-discovery complements: only files above the
// minimum score join, capped in count, deduplicated by path.
func AddComplements(candidates []models.FileCandidate, complements []models.FileCandidate) []models.FileCandidate {
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[filepath.Clean(c.Path)] = true
	}

	added := 0
	for _, comp := range complements {
		if added >= complementMaxCount {
			break
		}
		if comp.RelevanceScore < complementMinScore {
			continue
		}
		clean := filepath.Clean(comp.Path)
		if known[clean] {
			continue
		}
		known[clean] = true
		comp.Path = clean
		comp.AddKeyword("pattern-complement")
		candidates = append(candidates, comp)
		added++
	}

	discovery.SortByRelevance(candidates)
	return candidates
}
