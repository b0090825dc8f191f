package discovery

import (
	"path/filepath"
	"strings"

	"github.com/bugscope/backend/internal/models"
)

const (
	pathKeywordScore   = 15
	testFilePenalty    = -10
	stackFileScore     = 50
	stackFuncInContent = 20
	declIdiomScore     = 25
	messageTokenScore  = 15
	keywordOccurrence  = 5
	keywordContentCap  = 20
)

// rolePriors rewards paths suggestive of a structural role. Checked as
// lowercase substrings of the full path.
var rolePriors = []struct {
	token string
	score float64
}{
	{"handler", 10},
	{"controller", 9},
	{"api", 8},
	{"route", 8},
	{"page", 7},
	{"component", 7},
	{"hook", 5},
	{"store", 5},
	{"service", 4},
	{"util", 3},
	{"helper", 3},
	{"config", 2},
}

var testMarkers = []string{".test.", ".spec.", "_test.", "__tests__", "/test/", "/tests/"}

func scorePaths(candidates []models.FileCandidate, keywords []string) {
	for i := range candidates {
		scorePath(&candidates[i], keywords)
	}
}

func scorePath(c *models.FileCandidate, keywords []string) {
	lower := strings.ToLower(filepath.ToSlash(c.Path))

	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			c.PathScore += pathKeywordScore
			c.AddKeyword(kw)
		}
	}

	for _, prior := range rolePriors {
		if strings.Contains(lower, prior.token) {
			c.PathScore += prior.score
		}
	}

	for _, marker := range testMarkers {
		if strings.Contains(lower, marker) {
			c.PathScore += testFilePenalty
			break
		}
	}
}

// declIdioms are the declaration shapes checked when looking for a
// stack-trace function name inside file content.
func declIdioms(name string) []string {
	return []string{
		"function " + name,
		"const " + name + " =",
		"let " + name + " =",
		"var " + name + " =",
		name + ": function",
		name + " = (",
		"def " + name,
		"func " + name,
	}
}

func scoreContent(c *models.FileCandidate, opts Options) {
	content, ok := readCapped(c.Path)
	if !ok {
		return
	}
	base := filepath.Base(c.Path)

	// Stack-trace file and function hits.
	seenFuncs := map[string]bool{}
	for _, loc := range opts.ErrorLocations {
		if loc.File == base {
			c.ContentScore += stackFileScore
			c.AddKeyword("stacktrace:" + loc.File)
			if loc.FunctionName != "" && strings.Contains(content, loc.FunctionName) {
				c.ContentScore += stackFuncInContent
			}
		}
		if loc.FunctionName == "" || seenFuncs[loc.FunctionName] {
			continue
		}
		for _, idiom := range declIdioms(loc.FunctionName) {
			if strings.Contains(content, idiom) {
				c.ContentScore += declIdiomScore
				c.AddKeyword("declares:" + loc.FunctionName)
				seenFuncs[loc.FunctionName] = true
				break
			}
		}
	}

	// Error-message token hits: two distinct tokens (one for single-token
	// messages) must land in the content.
	for _, msg := range opts.ErrorMessages {
		tokens := messageTokens(msg)
		if len(tokens) == 0 {
			continue
		}
		needed := 2
		if len(tokens) == 1 {
			needed = 1
		}
		found := 0
		for _, tok := range tokens {
			if strings.Contains(content, tok) {
				found++
				if found >= needed {
					c.ContentScore += messageTokenScore
					c.AddKeyword("message-match")
					break
				}
			}
		}
	}

	// Keyword occurrences, capped per keyword.
	lowerContent := strings.ToLower(content)
	for _, kw := range opts.Keywords {
		if kw == "" {
			continue
		}
		occurrences := strings.Count(lowerContent, strings.ToLower(kw))
		if occurrences == 0 {
			continue
		}
		score := float64(occurrences * keywordOccurrence)
		if score > keywordContentCap {
			score = keywordContentCap
		}
		c.ContentScore += score
		c.AddKeyword(kw)
	}
}

func messageTokens(msg string) []string {
	var tokens []string
	for _, tok := range strings.Fields(msg) {
		tok = strings.Trim(tok, `"'.,;:()[]{}`)
		if len(tok) > 3 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
