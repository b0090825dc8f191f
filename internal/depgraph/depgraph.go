package depgraph

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/bugscope/backend/internal/discovery"
	"github.com/bugscope/backend/internal/models"
)

const (
	// Only the strongest already-discovered files get parsed for imports.
	parseTopK = 20
	// Newly discovered imports inherit a decayed share of the importer's
	// relevance.
	expansionDecay = 0.6
	maxExpansion   = 10

	maxFileReadBytes = 256 * 1024
)

// Graph maps a file path to the resolved paths it imports. Cycles are
// allowed; the graph is consumed for expansion only, never walked
// transitively.
type Graph map[string][]string

// The four import idioms recognized: static, namespace, side-effect or
// re-export, and dynamic.
var (
	staticImport     = regexp.MustCompile(`import\s+[\w$]+[\s,]*(?:\{[^}]*\})?\s*from\s*['"]([^'"]+)['"]`)
	namedImport      = regexp.MustCompile(`import\s*\{[^}]*\}\s*from\s*['"]([^'"]+)['"]`)
	namespaceImport  = regexp.MustCompile(`import\s*\*\s*as\s+[\w$]+\s+from\s*['"]([^'"]+)['"]`)
	sideEffectImport = regexp.MustCompile(`(?:import|export\s+(?:\*|\{[^}]*\})\s*from)\s*['"]([^'"]+)['"]`)
	dynamicImport    = regexp.MustCompile(`(?:import|require)\s*\(\s*['"]([^'"]+)['"]\s*\)`)
)

var importPatterns = []*regexp.Regexp{
	staticImport, namedImport, namespaceImport, sideEffectImport, dynamicImport,
}

// Resolution order for extensionless relative specifiers.
var resolveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
var indexNames = []string{"index.ts", "index.tsx", "index.js", "index.jsx"}

// Build parses imports for the top-K candidates and resolves them against
// the filesystem. Per-file parsing is independent and runs on a small
// worker pool. Unreadable files yield no edges.
func Build(ctx context.Context, candidates []models.FileCandidate) Graph {
	limit := parseTopK
	if limit > len(candidates) {
		limit = len(candidates)
	}

	graph := make(Graph, limit)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, 4)

	for _, c := range candidates[:limit] {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			edges := ParseImports(path)
			if len(edges) == 0 {
				return
			}
			mu.Lock()
			graph[path] = edges
			mu.Unlock()
		}(c.Path)
	}
	wg.Wait()

	return graph
}

// ParseImports extracts and resolves the relative imports of one file.
// Non-relative specifiers (external packages) are skipped. Results are
// deduplicated by resolved path.
func ParseImports(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if len(data) > maxFileReadBytes {
		data = data[:maxFileReadBytes]
	}
	content := string(data)

	var resolved []string
	seen := map[string]bool{}
	for _, pattern := range importPatterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			target := Resolve(path, m[1])
			if target == "" || seen[target] {
				continue
			}
			seen[target] = true
			resolved = append(resolved, target)
		}
	}
	return resolved
}

// Resolve maps a relative specifier to an existing file, trying the exact
// path, the known extensions, then index files. Returns "" when nothing on
// disk matches or the specifier is not relative.
func Resolve(fromFile, specifier string) string {
	if specifier == "" || specifier[0] != '.' {
		return ""
	}
	base := filepath.Clean(filepath.Join(filepath.Dir(fromFile), specifier))

	if isFile(base) {
		return base
	}
	for _, ext := range resolveExtensions {
		if candidate := base + ext; isFile(candidate) {
			return candidate
		}
	}
	for _, index := range indexNames {
		if candidate := filepath.Join(base, index); isFile(candidate) {
			return candidate
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Expand adds imported files that are not yet candidates, each with a
// decayed score and import provenance, capped at maxExpansion new entries.
// The returned slice is re-sorted by relevance.
func Expand(candidates []models.FileCandidate, graph Graph) []models.FileCandidate {
	known := map[string]bool{}
	for _, c := range candidates {
		known[filepath.Clean(c.Path)] = true
	}

	scoreByPath := map[string]float64{}
	for _, c := range candidates {
		scoreByPath[c.Path] = c.RelevanceScore
	}

	added := 0
	for _, c := range candidates {
		if added >= maxExpansion {
			break
		}
		for _, target := range graph[c.Path] {
			clean := filepath.Clean(target)
			if known[clean] {
				continue
			}
			known[clean] = true

			var size int64
			if info, err := os.Stat(clean); err == nil {
				size = info.Size()
			}
			candidates = append(candidates, models.FileCandidate{
				Path:            clean,
				Size:            size,
				RelevanceScore:  scoreByPath[c.Path] * expansionDecay,
				MatchedKeywords: []string{"imported-by:" + filepath.Base(c.Path)},
			})
			added++
			if added >= maxExpansion {
				break
			}
		}
	}

	discovery.SortByRelevance(candidates)
	return candidates
}
