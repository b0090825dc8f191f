package chunker

import (
	"context"
	"regexp"
	"strings"

	"github.com/bugscope/backend/internal/models"
)

// Heuristic is the default structural extractor: a line-oriented scan over
// prioritized declaration patterns with brace-depth block detection. It
// stands in for a real parser and trades parse fidelity for never failing;
// braces inside strings or template literals can confuse it, which is
// accepted.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

type declPattern struct {
	kind models.ChunkKind
	re   *regexp.Regexp
}

// Ordered by priority; the first match on a line wins.
var declPatterns = []declPattern{
	{models.ChunkFunction, regexp.MustCompile(`^\s*export\s+(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`)},
	{models.ChunkFunction, regexp.MustCompile(`^\s*(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`)},
	{models.ChunkFunction, regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`)},
	{models.ChunkClass, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)},
	{models.ChunkInterface, regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`)},
	{models.ChunkType, regexp.MustCompile(`^\s*(?:export\s+)?type\s+([A-Za-z_$][\w$]*)\s*=`)},
}

// Extract scans line by line. Lines consumed by a matched block are marked
// so nested declarations are never re-emitted as top-level chunks.
func (h *Heuristic) Extract(_ context.Context, content []byte, _ string) (chunks []models.CodeChunk) {
	// The scanner must never take the whole pipeline down on a pathological
	// file; a panic degrades to whatever was extracted before it.
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
		}
	}()

	lines := strings.Split(string(content), "\n")
	consumed := make([]bool, len(lines))

	for i := 0; i < len(lines); i++ {
		if consumed[i] {
			continue
		}
		kind, name, ok := matchDecl(lines[i])
		if !ok {
			continue
		}

		end := findBlockEnd(lines, i)
		for j := i; j <= end; j++ {
			consumed[j] = true
		}

		chunks = append(chunks, models.CodeChunk{
			Kind:      kind,
			Name:      name,
			StartLine: i + 1,
			EndLine:   end + 1,
			Content:   strings.Join(lines[i:end+1], "\n"),
			Signature: strings.TrimSpace(lines[i]),
		})
	}
	return chunks
}

func matchDecl(line string) (models.ChunkKind, string, bool) {
	for _, p := range declPatterns {
		if m := p.re.FindStringSubmatch(line); m != nil {
			return p.kind, m[1], true
		}
	}
	return "", "", false
}

// findBlockEnd balances braces character by character from the declaration
// line onward, ending at the first return to depth zero after at least one
// opening brace. A declaration whose first line has no opening brace
// degrades to a single-line chunk.
func findBlockEnd(lines []string, start int) int {
	if !strings.Contains(lines[start], "{") {
		return start
	}

	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
			if opened && depth == 0 {
				return i
			}
		}
	}
	// Unbalanced file: take everything to the end.
	return len(lines) - 1
}
