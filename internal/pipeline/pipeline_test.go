package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bugscope/backend/internal/agents"
	"github.com/bugscope/backend/internal/chunker"
	"github.com/bugscope/backend/internal/llm"
	"github.com/bugscope/backend/internal/models"
)

// routedGenerator answers each stage's prompt with a canned response, keyed
// by a marker substring of the prompt.
type routedGenerator struct {
	hypothesesText string
	hypothesesErr  error
	analysisText   string
	analysisErr    error
	reviewText     string
	reviewErr      error
	plainText      string
	plainErr       error
}

func (g *routedGenerator) GenerateText(_ context.Context, _ llm.GenerateRequest) (string, error) {
	return g.plainText, g.plainErr
}

func (g *routedGenerator) GenerateStructured(_ context.Context, prompt string, out any, _ llm.StructuredOptions) error {
	var text string
	var err error
	switch {
	case strings.Contains(prompt, "Form hypotheses"):
		text, err = g.hypothesesText, g.hypothesesErr
	case strings.Contains(prompt, "explain the likely root cause"):
		text, err = g.analysisText, g.analysisErr
	case strings.Contains(prompt, "Review this bug analysis"):
		text, err = g.reviewText, g.reviewErr
	default:
		return errors.New("unexpected prompt")
	}
	if err != nil {
		return err
	}
	return llm.ParseStructured(text, out)
}

func workdirFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "src", "cart.ts")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	src := "export function applyDiscount(total: number, code: string) {\n" +
		"  return total;\n" +
		"}\n" +
		"export function loadCart() {\n" +
		"  return applyDiscount(0, '');\n" +
		"}\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return root
}

func happyGenerator() *routedGenerator {
	return &routedGenerator{
		hypothesesText: `{"hypotheses": [{"statement": "discount code is never validated", "confidence": 0.7}]}`,
		analysisText:   `{"severity": "high", "category": "logic", "summary": "Discount is dropped before totaling", "rootCause": "applyDiscount ignores its code argument", "confidence": 0.8}`,
		reviewText:     `{"approved": true, "notes": "consistent with the code", "confidence": 0.9}`,
	}
}

func newTestOrchestrator(gen llm.Generator, reviewEnabled bool) *Orchestrator {
	return NewOrchestrator(
		agents.NewFinder(chunker.NewHeuristic(), gen, false),
		agents.NewInvestigator(gen),
		agents.NewExplainer(gen),
		agents.NewReviewer(gen),
		reviewEnabled,
	)
}

func baseRequest(workdir string) *models.AnalyzeRequest {
	return &models.AnalyzeRequest{
		Report: models.Report{
			Title: "Discount ignored at checkout",
			Body:  "TypeError: boom\n    at applyDiscount (src/cart.ts:1:10)",
		},
		Workdir:  workdir,
		MaxFiles: 5,
	}
}

func stageStates(result *models.PipelineResult) []string {
	var states []string
	for _, s := range result.Stages {
		states = append(states, s.State)
	}
	return states
}

func TestRunFastLevel(t *testing.T) {
	req := baseRequest(workdirFixture(t))
	req.LevelOverride = 1

	result, err := newTestOrchestrator(happyGenerator(), true).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Level != models.LevelFast {
		t.Errorf("Level = %d, want fast", result.Level)
	}
	if result.Final == nil || result.Final.Summary != "Discount is dropped before totaling" {
		t.Errorf("Unexpected final record: %+v", result.Final)
	}
	if len(result.Candidates) == 0 {
		t.Error("Expected retrieval candidates in the result")
	}
	if len(result.CallGraph) != 0 {
		t.Error("Fast level must not build a call graph")
	}
	if len(result.Hypotheses) != 0 {
		t.Error("Fast level must not investigate")
	}

	states := stageStates(result)
	for _, forbidden := range []string{string(StateInvestigating), string(StateReviewing)} {
		for _, s := range states {
			if s == forbidden {
				t.Errorf("Fast level ran stage %s", forbidden)
			}
		}
	}
}

func TestRunThoroughLevel(t *testing.T) {
	req := baseRequest(workdirFixture(t))
	req.LevelOverride = 2

	result, err := newTestOrchestrator(happyGenerator(), true).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Level != models.LevelThorough {
		t.Errorf("Level = %d, want thorough", result.Level)
	}
	if len(result.Hypotheses) != 1 || result.Hypotheses[0] != "discount code is never validated" {
		t.Errorf("Hypotheses = %v", result.Hypotheses)
	}
	if len(result.CallGraph) == 0 {
		t.Error("Thorough level should build a call graph")
	}
	if result.Final == nil || !result.Final.Reviewed {
		t.Errorf("Expected reviewed final record, got %+v", result.Final)
	}
	if result.Final.Confidence != 0.9 {
		t.Errorf("Review confidence should replace the analysis confidence, got %v", result.Final.Confidence)
	}
}

func TestRunInvestigatorFailureDegrades(t *testing.T) {
	gen := happyGenerator()
	gen.hypothesesErr = errors.New("model overloaded")

	req := baseRequest(workdirFixture(t))
	req.LevelOverride = 2

	result, err := newTestOrchestrator(gen, false).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Investigator failure must not abort the run: %v", err)
	}
	if result.Final == nil {
		t.Fatal("Expected a final record despite the degraded investigation")
	}
	if len(result.Hypotheses) != 0 {
		t.Errorf("Expected no hypotheses, got %v", result.Hypotheses)
	}

	found := false
	for _, s := range result.Stages {
		if s.State == string(StateInvestigatorFailed) && s.Error != "" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an INVESTIGATOR_FAILED stage record, got %v", stageStates(result))
	}
}

func TestRunExplainerFailureIsFatal(t *testing.T) {
	gen := happyGenerator()
	gen.analysisErr = errors.New("model down")
	gen.plainErr = errors.New("model down")

	req := baseRequest(workdirFixture(t))
	req.LevelOverride = 1

	_, err := newTestOrchestrator(gen, false).Run(context.Background(), req)
	if err == nil {
		t.Fatal("Expected a fatal error when explanation is impossible")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Expected StageError, got %T: %v", err, err)
	}
	if stageErr.State != StateExplainerFailed {
		t.Errorf("State = %s, want %s", stageErr.State, StateExplainerFailed)
	}
}

func TestRunExplainerFallsBackToPlainText(t *testing.T) {
	gen := happyGenerator()
	gen.analysisText = "no JSON from me"
	gen.plainText = "The discount code is parsed but never applied to the total."

	req := baseRequest(workdirFixture(t))
	req.LevelOverride = 1

	result, err := newTestOrchestrator(gen, false).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	final := result.Final
	if final == nil {
		t.Fatal("Expected a synthesized final record")
	}
	if final.Severity != "unknown" || final.Category != "general" {
		t.Errorf("Unexpected synthesized record: %+v", final)
	}
	if final.Confidence != 0.2 {
		t.Errorf("Synthesized confidence = %v, want 0.2", final.Confidence)
	}
	if !strings.Contains(final.Summary, "never applied") {
		t.Errorf("Synthesized summary should carry the plain text, got %q", final.Summary)
	}
}

func TestRunMissingWorkdirIsFinderFailure(t *testing.T) {
	req := baseRequest(filepath.Join(os.TempDir(), "does-not-exist-bugscope"))
	req.LevelOverride = 1

	_, err := newTestOrchestrator(happyGenerator(), false).Run(context.Background(), req)
	if err == nil {
		t.Fatal("Expected an error for a missing working directory")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Expected StageError, got %T", err)
	}
	if stageErr.State != StateFinderFailed {
		t.Errorf("State = %s, want %s", stageErr.State, StateFinderFailed)
	}
}
