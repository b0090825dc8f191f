package rerank

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/bugscope/backend/internal/llm"
	"github.com/bugscope/backend/internal/models"
)

// stubGenerator returns a canned response for every structured call.
type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) GenerateText(_ context.Context, _ llm.GenerateRequest) (string, error) {
	return s.text, s.err
}

func (s *stubGenerator) GenerateStructured(_ context.Context, _ string, out any, _ llm.StructuredOptions) error {
	if s.err != nil {
		return s.err
	}
	return llm.ParseStructured(s.text, out)
}

func testCandidates() []models.FileCandidate {
	return []models.FileCandidate{
		{Path: "src/a.ts", RelevanceScore: 100},
		{Path: "src/b.ts", RelevanceScore: 50},
	}
}

func TestRerankBlendsScores(t *testing.T) {
	gen := &stubGenerator{text: `[{"path": "src/a.ts", "score": 10}, {"path": "src/b.ts", "score": 90}]`}

	out := NewReranker(gen).Rerank(context.Background(), "t", "b", testCandidates())

	// a: 10*0.7 + 100*0.3 = 37; b: 90*0.7 + 50*0.3 = 78. b now leads.
	if out[0].Path != "src/b.ts" {
		t.Fatalf("Expected src/b.ts first after blend, got %s", out[0].Path)
	}
	if out[0].RelevanceScore != 78 {
		t.Errorf("b score = %v, want 78", out[0].RelevanceScore)
	}
	if out[1].RelevanceScore != 37 {
		t.Errorf("a score = %v, want 37", out[1].RelevanceScore)
	}
	for _, c := range out {
		found := false
		for _, kw := range c.MatchedKeywords {
			if kw == "llm-reranked" {
				found = true
			}
		}
		if !found {
			t.Errorf("%s missing llm-reranked tag", c.Path)
		}
	}
}

func TestRerankFailureLeavesRankingUntouched(t *testing.T) {
	original := testCandidates()

	for name, gen := range map[string]*stubGenerator{
		"generator error": {err: errors.New("timeout")},
		"non-JSON output": {text: "I cannot rank these files."},
		"empty array":     {text: "[]"},
	} {
		out := NewReranker(gen).Rerank(context.Background(), "t", "b", testCandidates())
		if !reflect.DeepEqual(out, original) {
			t.Errorf("%s: ranking changed: %+v", name, out)
		}
	}
}

func TestRerankClampsModelScores(t *testing.T) {
	gen := &stubGenerator{text: `[{"path": "src/a.ts", "score": 500}, {"path": "src/b.ts", "score": -20}]`}

	out := NewReranker(gen).Rerank(context.Background(), "t", "b", testCandidates())

	// a: 100*0.7 + 100*0.3 = 100; b: 0*0.7 + 50*0.3 = 15.
	if out[0].RelevanceScore != 100 {
		t.Errorf("Clamped high score blend = %v, want 100", out[0].RelevanceScore)
	}
	if out[1].RelevanceScore != 15 {
		t.Errorf("Clamped low score blend = %v, want 15", out[1].RelevanceScore)
	}
}

func TestRerankIgnoresUnknownPaths(t *testing.T) {
	gen := &stubGenerator{text: `[{"path": "src/ghost.ts", "score": 99}]`}

	out := NewReranker(gen).Rerank(context.Background(), "t", "b", testCandidates())

	if len(out) != 2 {
		t.Fatalf("Unknown path must not add candidates, got %d", len(out))
	}
	if out[0].Path != "src/a.ts" || out[0].RelevanceScore != 100 {
		t.Errorf("Untouched candidates should keep their scores: %+v", out[0])
	}
}
