package depgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bugscope/backend/internal/models"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func TestParseImportsResolvesRelativeSpecifiers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/cart.ts", "export const cart = 1;\n")
	writeFile(t, root, "src/shared/index.ts", "export const shared = 1;\n")
	app := writeFile(t, root, "src/app.ts", `import { cart } from './cart';
import * as shared from './shared';
import('./cart');
import 'left-pad';
const dyn = require('./cart');
`)

	imports := ParseImports(app)

	if len(imports) != 2 {
		t.Fatalf("Expected 2 resolved imports (deduped, externals skipped), got %d: %v", len(imports), imports)
	}
	bases := map[string]bool{}
	for _, p := range imports {
		bases[filepath.Base(p)] = true
	}
	if !bases["cart.ts"] {
		t.Errorf("Expected './cart' to resolve with extension, got %v", imports)
	}
	if !bases["index.ts"] {
		t.Errorf("Expected './shared' to resolve to its index file, got %v", imports)
	}
}

func TestResolvePrefersExactThenExtensionThenIndex(t *testing.T) {
	root := t.TempDir()
	from := writeFile(t, root, "src/a.ts", "")
	writeFile(t, root, "src/data.json.ts", "")

	if got := Resolve(from, "./data.json"); filepath.Base(got) != "data.json.ts" {
		t.Errorf("Extension resolution failed, got %q", got)
	}
	if got := Resolve(from, "lodash"); got != "" {
		t.Errorf("Non-relative specifier must not resolve, got %q", got)
	}
	if got := Resolve(from, "./missing"); got != "" {
		t.Errorf("Missing target must not resolve, got %q", got)
	}
}

func TestBuildParsesTopCandidatesOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/dep.ts", "export const dep = 1;\n")
	app := writeFile(t, root, "src/app.ts", "import { dep } from './dep';\n")

	graph := Build(context.Background(), []models.FileCandidate{
		{Path: app, RelevanceScore: 90},
	})

	if len(graph[app]) != 1 {
		t.Fatalf("Expected 1 edge for app.ts, got %v", graph[app])
	}
}

func TestExpandAddsDecayedCandidates(t *testing.T) {
	root := t.TempDir()
	dep := writeFile(t, root, "src/dep.ts", "export const dep = 1;\n")
	app := writeFile(t, root, "src/app.ts", "import { dep } from './dep';\n")

	candidates := []models.FileCandidate{
		{Path: app, RelevanceScore: 100},
	}
	graph := Graph{app: []string{dep}}

	expanded := Expand(candidates, graph)

	if len(expanded) != 2 {
		t.Fatalf("Expected 2 candidates after expansion, got %d", len(expanded))
	}
	// Sorted by relevance: importer first, decayed import second.
	if expanded[0].Path != app {
		t.Errorf("Expected importer first, got %s", expanded[0].Path)
	}
	added := expanded[1]
	if added.RelevanceScore != 60 {
		t.Errorf("Expected decayed score 60, got %v", added.RelevanceScore)
	}
	if len(added.MatchedKeywords) != 1 || added.MatchedKeywords[0] != "imported-by:app.ts" {
		t.Errorf("Expected import provenance marker, got %v", added.MatchedKeywords)
	}
}

func TestExpandSkipsKnownAndCapsAdditions(t *testing.T) {
	root := t.TempDir()
	app := writeFile(t, root, "src/app.ts", "")

	var targets []string
	for i := 0; i < 15; i++ {
		targets = append(targets, writeFile(t, root, filepath.Join("src", "deps", "d"+string(rune('a'+i))+".ts"), ""))
	}

	known := writeFile(t, root, "src/known.ts", "")
	candidates := []models.FileCandidate{
		{Path: app, RelevanceScore: 100},
		{Path: known, RelevanceScore: 50},
	}
	graph := Graph{app: append([]string{known}, targets...)}

	expanded := Expand(candidates, graph)

	if len(expanded) != 12 {
		t.Fatalf("Expected 2 existing + 10 capped additions, got %d", len(expanded))
	}
	seen := map[string]int{}
	for _, c := range expanded {
		seen[filepath.Clean(c.Path)]++
	}
	for path, n := range seen {
		if n > 1 {
			t.Errorf("Duplicate candidate for %s", path)
		}
	}
}
