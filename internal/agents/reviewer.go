package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/bugscope/backend/internal/llm"
	"github.com/bugscope/backend/internal/models"
)

// Reviewer double-checks the explanation at level 2. A failure leaves the
// analysis unreviewed; it never aborts the pipeline.
type Reviewer struct {
	generator llm.Generator
}

func NewReviewer(generator llm.Generator) *Reviewer {
	return &Reviewer{generator: generator}
}

func (a *Reviewer) Name() string        { return "reviewer" }
func (a *Reviewer) Description() string { return "verifies the analysis against the evidence" }

func (a *Reviewer) RequiredLevel() models.AnalysisLevel { return models.LevelThorough }

func (a *Reviewer) Execute(ctx context.Context, in *Input) error {
	if in.Explanation == nil {
		return fmt.Errorf("no explanation to review")
	}

	var sb strings.Builder
	sb.WriteString("Review this bug analysis for consistency with the evidence.\n\n")
	fmt.Fprintf(&sb, "Report title: %s\n", in.Report.Title)
	fmt.Fprintf(&sb, "\nAnalysis:\n- severity: %s\n- category: %s\n- summary: %s\n- root cause: %s\n- fix: %s\n",
		in.Explanation.Severity, in.Explanation.Category, in.Explanation.Summary,
		in.Explanation.RootCause, in.Explanation.FixSuggestion)
	if in.Finding != nil && in.Finding.Context.Text != "" {
		fmt.Fprintf(&sb, "\nEvidence:\n%s\n", clip(in.Finding.Context.Text, 20000))
	}
	sb.WriteString("\nReturn JSON: {\"approved\": boolean, \"notes\": string, \"confidence\": number 0-1}")

	var review Review
	// Best-effort sub-step: single attempt, no retry.
	if err := a.generator.GenerateStructured(ctx, sb.String(), &review, llm.StructuredOptions{MaxTokens: 512}); err != nil {
		return fmt.Errorf("review generation failed: %w", err)
	}

	in.Review = &review
	in.Explanation.Reviewed = true
	in.Explanation.ReviewNotes = review.Notes
	if review.Confidence > 0 {
		in.Explanation.Confidence = review.Confidence
	}
	return nil
}
