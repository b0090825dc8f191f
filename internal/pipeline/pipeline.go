package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bugscope/backend/internal/agents"
	"github.com/bugscope/backend/internal/models"
	"github.com/bugscope/backend/internal/report"
)

// State is the orchestrator's position in the run.
type State string

const (
	StateLevelDetermined State = "LEVEL_DETERMINED"
	StateFinding         State = "FINDING"
	StateInvestigating   State = "INVESTIGATING"
	StateExplaining      State = "EXPLAINING"
	StateReviewing       State = "REVIEWING"
	StateDone            State = "DONE"

	// Terminal failure states. Finder and Explainer failures are fatal;
	// Investigator and Reviewer failures downgrade the run and continue.
	StateFinderFailed       State = "FINDER_FAILED"
	StateInvestigatorFailed State = "INVESTIGATOR_FAILED"
	StateExplainerFailed    State = "EXPLAINER_FAILED"
	StateReviewerFailed     State = "REVIEWER_FAILED"
)

// StageError identifies which fatal stage aborted the pipeline.
type StageError struct {
	Stage string
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Orchestrator sequences the agent stages by level. All intermediate state
// is request-scoped; nothing survives a run.
type Orchestrator struct {
	finder       *agents.Finder
	investigator *agents.Investigator
	explainer    *agents.Explainer
	reviewer     *agents.Reviewer

	ReviewEnabled bool
}

func NewOrchestrator(finder *agents.Finder, investigator *agents.Investigator, explainer *agents.Explainer, reviewer *agents.Reviewer, reviewEnabled bool) *Orchestrator {
	return &Orchestrator{
		finder:        finder,
		investigator:  investigator,
		explainer:     explainer,
		reviewer:      reviewer,
		ReviewEnabled: reviewEnabled,
	}
}

// Run executes LEVEL_DETERMINED -> FINDING -> [INVESTIGATING] ->
// EXPLAINING -> [REVIEWING] -> DONE. A cancelled context after finding
// returns the best data gathered so far instead of an error.
func (o *Orchestrator) Run(ctx context.Context, req *models.AnalyzeRequest) (*models.PipelineResult, error) {
	started := time.Now()

	report.Normalize(&req.Report)
	level := report.DetermineLevel(&req.Report, req.LevelOverride)

	maxFiles := req.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 10
	}
	in := &agents.Input{
		Report:   &req.Report,
		Workdir:  req.Workdir,
		MaxFiles: maxFiles,
		Level:    level,
	}

	result := &models.PipelineResult{Level: level}
	result.Stages = append(result.Stages, models.StageRecord{
		Name: "level", State: string(StateLevelDetermined),
	})

	// FINDING — fatal on failure.
	if err := o.runStage(ctx, o.finder, in, result); err != nil {
		return nil, &StageError{Stage: o.finder.Name(), State: StateFinderFailed, Err: err}
	}

	// INVESTIGATING — level 2 only, degraded mode on failure.
	if level == models.LevelThorough {
		if err := o.runStage(ctx, o.investigator, in, result); err != nil {
			log.Printf("pipeline: investigator degraded: %v", err)
		}
		if done := o.deadlineResult(ctx, in, result, started); done != nil {
			return done, nil
		}
	}

	// EXPLAINING — fatal on failure.
	if err := o.runStage(ctx, o.explainer, in, result); err != nil {
		if done := o.deadlineResult(ctx, in, result, started); done != nil {
			return done, nil
		}
		return nil, &StageError{Stage: o.explainer.Name(), State: StateExplainerFailed, Err: err}
	}

	// REVIEWING — level 2 and enabled only, degraded mode on failure.
	if level == models.LevelThorough && o.ReviewEnabled {
		if err := o.runStage(ctx, o.reviewer, in, result); err != nil {
			log.Printf("pipeline: reviewer degraded: %v", err)
		}
	}

	o.finish(in, result, StateDone, started)
	return result, nil
}

// runStage executes one agent and appends its stage record.
func (o *Orchestrator) runStage(ctx context.Context, agent agents.Agent, in *agents.Input, result *models.PipelineResult) error {
	stageStart := time.Now()
	err := agent.Execute(ctx, in)

	record := models.StageRecord{
		Name:       agent.Name(),
		State:      string(runningState(agent.Name())),
		DurationMs: time.Since(stageStart).Milliseconds(),
	}
	if err != nil {
		record.State = string(failedState(agent.Name()))
		record.Error = err.Error()
	}
	result.Stages = append(result.Stages, record)
	return err
}

// deadlineResult returns a best-effort result when the caller's deadline
// expired mid-run, or nil when the run may continue.
func (o *Orchestrator) deadlineResult(ctx context.Context, in *agents.Input, result *models.PipelineResult, started time.Time) *models.PipelineResult {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	if in.Explanation == nil {
		in.Explanation = &models.AnalysisRecord{
			Severity:   "unknown",
			Category:   "general",
			Summary:    "Analysis aborted by deadline; partial retrieval results attached.",
			Confidence: 0.1,
		}
	}
	o.finish(in, result, StateDone, started)
	return result
}

// finish freezes the accumulated inputs into the immutable result.
func (o *Orchestrator) finish(in *agents.Input, result *models.PipelineResult, state State, started time.Time) {
	if in.Finding != nil {
		result.Candidates = in.Finding.Candidates
		result.ContextText = in.Finding.Context.Text
		result.ContextFallback = in.Finding.Context.FromFallback
		if in.Finding.CallGraph != nil {
			result.CallGraph = in.Finding.CallGraph.Nodes()
		}
	}
	if in.Investigation != nil {
		for _, h := range in.Investigation.Hypotheses {
			result.Hypotheses = append(result.Hypotheses, h.Statement)
		}
	}
	result.Final = in.Explanation
	result.Stages = append(result.Stages, models.StageRecord{Name: "done", State: string(state)})
	result.TotalDurationMs = time.Since(started).Milliseconds()
}

func runningState(name string) State {
	switch name {
	case "finder":
		return StateFinding
	case "investigator":
		return StateInvestigating
	case "explainer":
		return StateExplaining
	case "reviewer":
		return StateReviewing
	}
	return StateDone
}

func failedState(name string) State {
	switch name {
	case "finder":
		return StateFinderFailed
	case "investigator":
		return StateInvestigatorFailed
	case "explainer":
		return StateExplainerFailed
	case "reviewer":
		return StateReviewerFailed
	}
	return StateDone
}
