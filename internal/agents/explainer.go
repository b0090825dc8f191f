package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/bugscope/backend/internal/llm"
	"github.com/bugscope/backend/internal/models"
)

// Explainer produces the final analysis record. This is the top-level
// structured-analysis call: it retries with exponential backoff, and a
// structured failure falls back to plain text generation plus a synthesized
// minimal record. Only when that also fails does the pipeline abort.
type Explainer struct {
	generator llm.Generator
	retries   int
}

func NewExplainer(generator llm.Generator) *Explainer {
	return &Explainer{generator: generator, retries: 2}
}

func (a *Explainer) Name() string        { return "explainer" }
func (a *Explainer) Description() string { return "produces the final root-cause analysis" }

func (a *Explainer) RequiredLevel() models.AnalysisLevel { return models.LevelFast }

func (a *Explainer) Execute(ctx context.Context, in *Input) error {
	prompt := a.buildPrompt(in)

	var record models.AnalysisRecord
	err := a.generator.GenerateStructured(ctx, prompt, &record, llm.StructuredOptions{
		MaxTokens: 1536,
		Retries:   a.retries,
	})
	if err == nil && record.Summary != "" {
		clampConfidence(&record)
		in.Explanation = &record
		return nil
	}

	// Structured generation is exhausted; degrade to unstructured text and
	// synthesize a minimal record around it.
	text, textErr := a.generator.GenerateText(ctx, llm.GenerateRequest{
		Prompt:    prompt + "\n\nIf you cannot produce JSON, explain the likely cause in plain text.",
		MaxTokens: 1024,
	})
	if textErr != nil {
		return fmt.Errorf("analysis generation failed: %w", textErr)
	}

	in.Explanation = &models.AnalysisRecord{
		Severity:   "unknown",
		Category:   "general",
		Summary:    clip(strings.TrimSpace(text), 2000),
		Confidence: 0.2,
	}
	return nil
}

func (a *Explainer) buildPrompt(in *Input) string {
	var sb strings.Builder
	sb.WriteString("Analyze this bug report against the code context and explain the likely root cause.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n\nBody:\n%s\n", in.Report.Title, in.Report.Body)

	if len(in.Report.ErrorMessages) > 0 {
		fmt.Fprintf(&sb, "\nError messages:\n- %s\n", strings.Join(in.Report.ErrorMessages, "\n- "))
	}

	if in.Finding != nil && in.Finding.Context.Text != "" {
		fmt.Fprintf(&sb, "\nRelevant code:\n%s\n", in.Finding.Context.Text)
	}

	// Hypotheses are optional context: the prompt shape is identical with
	// or without a prior investigate stage.
	if in.Investigation != nil && len(in.Investigation.Hypotheses) > 0 {
		sb.WriteString("\nWorking hypotheses from a prior investigation:\n")
		for _, h := range in.Investigation.Hypotheses {
			fmt.Fprintf(&sb, "- (%.2f) %s\n", h.Confidence, h.Statement)
		}
	}

	sb.WriteString("\nReturn JSON: {\"severity\": \"critical|high|medium|low\", \"category\": string, " +
		"\"summary\": string, \"rootCause\": string, \"fixSuggestion\": string, " +
		"\"confidence\": number 0-1, \"affectedFiles\": [string]}")
	return sb.String()
}

func clampConfidence(r *models.AnalysisRecord) {
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
