package agents

import (
	"context"

	"github.com/bugscope/backend/internal/callgraph"
	"github.com/bugscope/backend/internal/contextbundle"
	"github.com/bugscope/backend/internal/models"
	"github.com/bugscope/backend/internal/rerank"
)

// Agent is the closed stage contract. The orchestrator dispatches the four
// variants (Finder, Investigator, Explainer, Reviewer) explicitly; there is
// no dynamic registry.
type Agent interface {
	Name() string
	Description() string
	RequiredLevel() models.AnalysisLevel
	Execute(ctx context.Context, in *Input) error
}

var (
	_ Agent = (*Finder)(nil)
	_ Agent = (*Investigator)(nil)
	_ Agent = (*Explainer)(nil)
	_ Agent = (*Reviewer)(nil)
)

// Input accumulates the outputs of all prior stages. Later stages must
// tolerate absent optional predecessors: Explainer runs identically whether
// or not Investigation is set.
type Input struct {
	Report   *models.Report
	Workdir  string
	MaxFiles int
	Level    models.AnalysisLevel

	Finding       *Finding
	Investigation *Investigation
	Explanation   *models.AnalysisRecord
	Review        *Review
}

// Finding is the retrieval stage output: the ranked candidates and
// everything derived from them.
type Finding struct {
	Candidates   []models.FileCandidate
	ChunksByFile map[string][]models.CodeChunk
	CallGraph    callgraph.Graph
	Context      contextbundle.Bundle
	Intent       *rerank.Intent
}

// Hypothesis is one investigator guess at the defect.
type Hypothesis struct {
	Statement  string   `json:"statement"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence,omitempty"`
}

// Investigation is the optional level-2 deep-dive output.
type Investigation struct {
	Hypotheses       []Hypothesis `json:"hypotheses"`
	CallChains       [][]string   `json:"callChains,omitempty"`
	RelatedFunctions []string     `json:"relatedFunctions,omitempty"`
}

// Review is the optional level-2 verification output.
type Review struct {
	Approved   bool    `json:"approved"`
	Notes      string  `json:"notes,omitempty"`
	Confidence float64 `json:"confidence"`
}
