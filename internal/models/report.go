package models

// ErrorLocation is a single stack-trace reference extracted from a bug
// report. File holds the basename only; locations are deduplicated by it.
type ErrorLocation struct {
	File         string `json:"file"`
	Line         int    `json:"line,omitempty"`
	Column       int    `json:"column,omitempty"`
	FunctionName string `json:"functionName,omitempty"`
	Context      string `json:"context,omitempty"`
}

// Report is the normalized bug report a pipeline run operates on.
type Report struct {
	Title          string          `json:"title"`
	Body           string          `json:"body"`
	IssueNumber    int             `json:"issueNumber,omitempty"`
	Owner          string          `json:"owner,omitempty"`
	Repo           string          `json:"repo,omitempty"`
	Keywords       []string        `json:"keywords,omitempty"`
	ErrorLocations []ErrorLocation `json:"errorLocations,omitempty"`
	ErrorMessages  []string        `json:"errorMessages,omitempty"`
}

// AnalyzeRequest is the API input record: a report plus run parameters.
type AnalyzeRequest struct {
	Report

	// Workdir is the local root to search. When empty and Owner/Repo are
	// set, the repository is cloned first.
	Workdir       string `json:"workdir,omitempty"`
	MaxFiles      int    `json:"maxFiles,omitempty"`
	LevelOverride int    `json:"levelOverride,omitempty"`
}
