package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/bugscope/backend/internal/callgraph"
	"github.com/bugscope/backend/internal/llm"
	"github.com/bugscope/backend/internal/models"
)

const (
	chainMaxDepth   = 5
	maxRelatedFuncs = 8
)

// Investigator is the level-2 deep-dive: trace call chains from the
// functions the stack trace names, then ask the model for ranked defect
// hypotheses. A failure here is non-fatal; the pipeline continues without
// hypotheses.
type Investigator struct {
	generator llm.Generator
}

func NewInvestigator(generator llm.Generator) *Investigator {
	return &Investigator{generator: generator}
}

func (a *Investigator) Name() string        { return "investigator" }
func (a *Investigator) Description() string { return "traces call chains and forms defect hypotheses" }

func (a *Investigator) RequiredLevel() models.AnalysisLevel { return models.LevelThorough }

func (a *Investigator) Execute(ctx context.Context, in *Input) error {
	if in.Finding == nil {
		return fmt.Errorf("no finding to investigate")
	}

	investigation := &Investigation{}

	if graph := in.Finding.CallGraph; graph != nil {
		for _, loc := range in.Report.ErrorLocations {
			if loc.FunctionName == "" {
				continue
			}
			investigation.CallChains = append(investigation.CallChains,
				callgraph.FindCallChain(graph, loc.FunctionName, chainMaxDepth)...)
			investigation.RelatedFunctions = append(investigation.RelatedFunctions,
				callgraph.RelatedFunctions(graph, loc.FunctionName, maxRelatedFuncs)...)
		}
	}

	prompt := a.buildPrompt(in, investigation)

	var payload struct {
		Hypotheses []Hypothesis `json:"hypotheses"`
	}
	// Best-effort sub-step: single attempt, no retry.
	if err := a.generator.GenerateStructured(ctx, prompt, &payload, llm.StructuredOptions{MaxTokens: 1024}); err != nil {
		return fmt.Errorf("hypothesis generation failed: %w", err)
	}
	investigation.Hypotheses = payload.Hypotheses

	in.Investigation = investigation
	return nil
}

func (a *Investigator) buildPrompt(in *Input, inv *Investigation) string {
	var sb strings.Builder
	sb.WriteString("You are investigating a bug report. Form hypotheses about the root cause.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n\nBody:\n%s\n", in.Report.Title, in.Report.Body)

	if len(inv.CallChains) > 0 {
		sb.WriteString("\nCall chains reaching the failing function (entry point first):\n")
		for _, chain := range inv.CallChains {
			fmt.Fprintf(&sb, "- %s\n", strings.Join(chain, " -> "))
		}
	}
	if len(inv.RelatedFunctions) > 0 {
		fmt.Fprintf(&sb, "\nRelated functions: %s\n", strings.Join(inv.RelatedFunctions, ", "))
	}
	if text := in.Finding.Context.Text; text != "" {
		fmt.Fprintf(&sb, "\nRelevant code:\n%s\n", text)
	}

	sb.WriteString("\nReturn JSON: {\"hypotheses\": [{\"statement\": string, \"confidence\": number 0-1, \"evidence\": [string]}]}")
	return sb.String()
}
