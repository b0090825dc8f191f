package models

// AnalysisLevel selects pipeline depth: 1 is the fast path, 2 runs the
// investigate and review stages as well.
type AnalysisLevel int

const (
	LevelFast     AnalysisLevel = 1
	LevelThorough AnalysisLevel = 2
)

// AnalysisRecord is the Explain/Review output contract. The pipeline treats
// its fields as opaque apart from carrying them to the caller.
type AnalysisRecord struct {
	Severity      string   `json:"severity"`
	Category      string   `json:"category"`
	Summary       string   `json:"summary"`
	RootCause     string   `json:"rootCause"`
	FixSuggestion string   `json:"fixSuggestion"`
	Confidence    float64  `json:"confidence"`
	AffectedFiles []string `json:"affectedFiles,omitempty"`
	Reviewed      bool     `json:"reviewed"`
	ReviewNotes   string   `json:"reviewNotes,omitempty"`
}

// StageRecord captures one orchestrator stage for the result trail.
type StageRecord struct {
	Name       string `json:"name"`
	State      string `json:"state"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// PipelineResult is assembled once at the end of a run and never mutated
// afterwards.
type PipelineResult struct {
	Level           AnalysisLevel   `json:"level"`
	Final           *AnalysisRecord `json:"final"`
	Stages          []StageRecord   `json:"stages"`
	Candidates      []FileCandidate `json:"candidates,omitempty"`
	ContextText     string          `json:"contextText,omitempty"`
	ContextFallback bool            `json:"contextFallback"`
	CallGraph       []CallGraphNode `json:"callGraph,omitempty"`
	Hypotheses      []string        `json:"hypotheses,omitempty"`
	TotalDurationMs int64           `json:"totalDurationMs"`
}

// Run is the persisted record of one pipeline invocation.
type Run struct {
	ID         string          `json:"id"`
	Owner      string          `json:"owner,omitempty"`
	Repo       string          `json:"repo,omitempty"`
	IssueNum   int             `json:"issueNumber,omitempty"`
	Title      string          `json:"title"`
	Status     string          `json:"status"` // pending, running, done, error
	Level      int             `json:"level,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  int64           `json:"startedAt"`
	FinishedAt int64           `json:"finishedAt,omitempty"`
	DurationMs int64           `json:"durationMs,omitempty"`
	Final      *AnalysisRecord `json:"final,omitempty"`
}
