package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/bugscope/backend/internal/models"
)

func TestHeuristicAdjacentOneLineFunctions(t *testing.T) {
	src := "function a(){}\nfunction b(){}\n"

	chunks := NewHeuristic().Extract(context.Background(), []byte(src), "a.ts")

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Name != "a" || chunks[0].StartLine != 1 || chunks[0].EndLine != 1 {
		t.Errorf("Unexpected first chunk: %+v", chunks[0])
	}
	if chunks[1].Name != "b" || chunks[1].StartLine != 2 || chunks[1].EndLine != 2 {
		t.Errorf("Unexpected second chunk: %+v", chunks[1])
	}
}

func TestHeuristicNestedDeclarationsNotReemitted(t *testing.T) {
	src := `export function outer() {
  function inner() {
    return 1;
  }
  return inner();
}
const arrow = (x) => {
  return x;
};
`
	chunks := NewHeuristic().Extract(context.Background(), []byte(src), "a.ts")

	if len(chunks) != 2 {
		t.Fatalf("Expected outer and arrow only, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Name != "outer" || chunks[0].EndLine != 6 {
		t.Errorf("Unexpected outer chunk: %+v", chunks[0])
	}
	if chunks[1].Name != "arrow" || chunks[1].Kind != models.ChunkFunction {
		t.Errorf("Unexpected arrow chunk: %+v", chunks[1])
	}

	// Chunks are disjoint: no line may belong to two of them.
	covered := map[int]bool{}
	for _, c := range chunks {
		for l := c.StartLine; l <= c.EndLine; l++ {
			if covered[l] {
				t.Errorf("Line %d covered by more than one chunk", l)
			}
			covered[l] = true
		}
	}
}

func TestHeuristicBracelessDeclarationIsSingleLine(t *testing.T) {
	src := "export type UserID = string\ninterface Props {\n  name: string\n}\n"

	chunks := NewHeuristic().Extract(context.Background(), []byte(src), "a.ts")

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Kind != models.ChunkType || chunks[0].EndLine != 1 {
		t.Errorf("Braceless type should be a single-line chunk: %+v", chunks[0])
	}
	if chunks[1].Kind != models.ChunkInterface || chunks[1].EndLine != 4 {
		t.Errorf("Unexpected interface chunk: %+v", chunks[1])
	}
}

func TestHeuristicUnbalancedBracesRunToEOF(t *testing.T) {
	src := "function broken() {\n  if (x) {\n    return 1;\n"

	chunks := NewHeuristic().Extract(context.Background(), []byte(src), "a.ts")

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].EndLine != strings.Count(src, "\n")+1 {
		t.Errorf("Unbalanced chunk should run to EOF, got end line %d", chunks[0].EndLine)
	}
}

func TestHeuristicClassAndKinds(t *testing.T) {
	src := `export default class CartService {
  total() { return 0; }
}
`
	chunks := NewHeuristic().Extract(context.Background(), []byte(src), "a.ts")

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 class chunk, got %d: %+v", len(chunks), chunks)
	}
	c := chunks[0]
	if c.Kind != models.ChunkClass || c.Name != "CartService" {
		t.Errorf("Unexpected chunk: %+v", c)
	}
	if c.Signature != "export default class CartService {" {
		t.Errorf("Unexpected signature: %q", c.Signature)
	}
}

func TestHeuristicNeverReturnsErrorOnGarbage(t *testing.T) {
	inputs := []string{
		"",
		"}}}}{{{{",
		"function () {",
		strings.Repeat("{", 10000),
		"\x00\x01\x02 function x() {}",
	}
	h := NewHeuristic()
	for _, src := range inputs {
		// Must not panic; chunk count is unconstrained.
		_ = h.Extract(context.Background(), []byte(src), "junk.ts")
	}
}
