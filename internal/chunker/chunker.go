package chunker

import (
	"context"
	"io"
	"os"

	"github.com/bugscope/backend/internal/models"
)

const maxFileReadBytes = 512 * 1024

// Extractor turns raw source text into ordered, disjoint chunks. Both
// implementations are best-effort: a file that cannot be parsed yields an
// empty chunk list, never an error.
type Extractor interface {
	Extract(ctx context.Context, content []byte, path string) []models.CodeChunk
}

// New selects an extractor by name. "treesitter" uses the grammar-backed
// extractor with a heuristic fallback for unsupported languages; anything
// else selects the heuristic scanner.
func New(kind string) Extractor {
	if kind == "treesitter" {
		return NewSitterExtractor()
	}
	return NewHeuristic()
}

// ChunkFile reads a file (size-capped) and extracts its chunks. Read
// failures are swallowed: the result is simply empty.
func ChunkFile(ctx context.Context, e Extractor, path string) []models.CodeChunk {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxFileReadBytes))
	if err != nil || len(content) == 0 {
		return nil
	}
	return e.Extract(ctx, content, path)
}

// LanguageByExtension maps file extensions to tree-sitter language names.
var LanguageByExtension = map[string]string{
	".go":   "go",
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".java": "java",
	".kt":   "kotlin",
	".kts":  "kotlin",
}

func DetectLanguage(path string) string {
	for ext, lang := range LanguageByExtension {
		if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
			return lang
		}
	}
	return ""
}
