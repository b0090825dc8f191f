package models

// FileCandidate is a filesystem path scored for relevance to a report.
// MatchedKeywords is append-only provenance: plain keywords for path/content
// matches, tagged entries ("stacktrace:app.ts", "imported-by:server.ts",
// "llm-inferred") for the other discovery channels.
type FileCandidate struct {
	Path            string   `json:"path"`
	Size            int64    `json:"size"`
	PathScore       float64  `json:"pathScore"`
	ContentScore    float64  `json:"contentScore"`
	RelevanceScore  float64  `json:"relevanceScore"`
	MatchedKeywords []string `json:"matchedKeywords,omitempty"`
}

// AddKeyword appends a provenance tag unless already recorded.
func (c *FileCandidate) AddKeyword(kw string) {
	for _, existing := range c.MatchedKeywords {
		if existing == kw {
			return
		}
	}
	c.MatchedKeywords = append(c.MatchedKeywords, kw)
}
