package contextbundle

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bugscope/backend/internal/models"
)

const (
	maxBundleFiles = 10
	maxBundleChars = 60000
	minUsefulChars = 500

	fallbackWindow       = 20
	fallbackRawPrefixCap = 2000
)

// Chunk scoring weights.
const (
	lineHitScore  = 100
	funcNameScore = 50
	keywordScore  = 10
	exportedScore = 5
	minKeywordLen = 3
)

// Bundle is the assembled, size-bounded code context for a run.
type Bundle struct {
	Text         string   `json:"text"`
	Files        []string `json:"files"`
	ChunkCount   int      `json:"chunkCount"`
	FromFallback bool     `json:"fromFallback"`
	Truncated    bool     `json:"truncated"`
}

// Builder merges ranked chunks into a text bundle, falling back to raw line
// windows when chunking produced too little to be useful.
type Builder struct {
	MaxFiles int
	MaxChars int
}

func NewBuilder() *Builder {
	return &Builder{MaxFiles: maxBundleFiles, MaxChars: maxBundleChars}
}

// Build assembles the bundle for the top candidates. chunksByFile may be
// sparse; files without usable chunks contribute nothing to the primary
// bundle but still participate in the fallback.
func (b *Builder) Build(
	candidates []models.FileCandidate,
	chunksByFile map[string][]models.CodeChunk,
	locations []models.ErrorLocation,
	keywords []string,
) Bundle {
	limit := b.MaxFiles
	if limit > len(candidates) {
		limit = len(candidates)
	}
	top := candidates[:limit]

	bundle := b.assembleChunks(top, chunksByFile, locations, keywords)
	if len(bundle.Text) >= minUsefulChars {
		return bundle
	}
	return b.assembleFallback(top, locations)
}

func (b *Builder) assembleChunks(
	candidates []models.FileCandidate,
	chunksByFile map[string][]models.CodeChunk,
	locations []models.ErrorLocation,
	keywords []string,
) Bundle {
	var sb strings.Builder
	bundle := Bundle{}

	for _, candidate := range candidates {
		scored := scoreChunks(candidate, chunksByFile[candidate.Path], locations, keywords)
		if len(scored) == 0 {
			continue
		}

		header := fmt.Sprintf("// File: %s (relevance %.0f)\n", candidate.Path, candidate.RelevanceScore)
		if sb.Len()+len(header) > b.MaxChars {
			bundle.Truncated = true
			break
		}
		sb.WriteString(header)
		bundle.Files = append(bundle.Files, candidate.Path)

		for _, chunk := range scored {
			block := chunk.Content + "\n\n"
			if sb.Len()+len(block) > b.MaxChars {
				bundle.Truncated = true
				break
			}
			sb.WriteString(block)
			bundle.ChunkCount++
		}
		if bundle.Truncated {
			break
		}
	}

	bundle.Text = sb.String()
	return bundle
}

// scoreChunks ranks one file's chunks against the report signals and drops
// everything that scored zero. Survivors come back in line order.
func scoreChunks(
	candidate models.FileCandidate,
	chunks []models.CodeChunk,
	locations []models.ErrorLocation,
	keywords []string,
) []models.CodeChunk {
	base := filepath.Base(candidate.Path)

	type scoredChunk struct {
		chunk models.CodeChunk
		score int
	}
	var kept []scoredChunk

	for _, chunk := range chunks {
		score := 0
		for _, loc := range locations {
			if loc.File == base && loc.Line >= chunk.StartLine && loc.Line <= chunk.EndLine {
				score += lineHitScore
			}
			if loc.FunctionName != "" && strings.Contains(chunk.Name, loc.FunctionName) {
				score += funcNameScore
			}
		}
		haystack := strings.ToLower(chunk.Name + " " + chunk.Signature)
		for _, kw := range keywords {
			if len(kw) < minKeywordLen {
				continue
			}
			if strings.Contains(haystack, strings.ToLower(kw)) {
				score += keywordScore
			}
		}
		if strings.Contains(chunk.Signature, "export") {
			score += exportedScore
		}
		if score > 0 {
			kept = append(kept, scoredChunk{chunk, score})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].chunk.StartLine < kept[j].chunk.StartLine
	})

	out := make([]models.CodeChunk, len(kept))
	for i, sc := range kept {
		out[i] = sc.chunk
	}
	return out
}
