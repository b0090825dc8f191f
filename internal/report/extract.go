package report

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bugscope/backend/internal/models"
)

var (
	// "at funcName (src/app.ts:12:5)" — V8 frame with a symbol.
	frameWithFunc = regexp.MustCompile(`at\s+([\w$.<>\[\]]+)\s+\(([^():\s]+):(\d+):(\d+)\)`)
	// "at src/app.ts:12:5" — anonymous V8 frame.
	frameBare = regexp.MustCompile(`at\s+([^():\s]+):(\d+):(\d+)`)
	// 'File "app.py", line 12, in handler' — CPython frame.
	framePython = regexp.MustCompile(`File\s+"([^"]+)",\s+line\s+(\d+)(?:,\s+in\s+([\w<>]+))?`)
	// "app.ts:12:5" loose references outside a structured trace.
	frameLoose = regexp.MustCompile(`([\w./\\-]+\.(?:ts|tsx|js|jsx|mjs|cjs|py|go|java|kt|rb))(?::(\d+))?(?::(\d+))?`)

	errorLine = regexp.MustCompile(`(?m)^\s*(?:\[[\w: .-]+\]\s*)?((?:[A-Z]\w*)?(?:Error|Exception|FATAL|panic)\b[:\s].*)$`)

	wordSplit = regexp.MustCompile(`[^a-zA-Z0-9_]+`)
)

var stopwords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"this": true, "that": true, "when": true, "then": true, "does": true,
	"not": true, "from": true, "have": true, "has": true, "was": true,
	"are": true, "can": true, "cannot": true, "will": true, "should": true,
	"would": true, "could": true, "after": true, "before": true, "into": true,
	"error": true, "issue": true, "bug": true, "problem": true, "using": true,
	"while": true, "only": true, "also": true, "seems": true, "there": true,
	"here": true, "what": true, "where": true, "which": true, "them": true,
	"they": true, "happens": true, "happened": true, "tried": true,
	"trying": true, "please": true, "thanks": true, "expected": true,
	"actual": true, "steps": true, "reproduce": true, "version": true,
	"browser": true, "click": true, "page": true, "user": true,
}

// ExtractKeywords pulls searchable tokens out of the report title and body.
// Tokens shorter than 3 characters and common report boilerplate are dropped;
// the result is ordered by frequency, title words first on ties.
func ExtractKeywords(title, body string, max int) []string {
	if max <= 0 {
		max = 10
	}

	type freq struct {
		word  string
		count int
		order int
	}

	counts := map[string]*freq{}
	order := 0
	add := func(text string, weight int) {
		for _, raw := range wordSplit.Split(strings.ToLower(text), -1) {
			if len(raw) < 3 || stopwords[raw] {
				continue
			}
			if _, err := strconv.Atoi(raw); err == nil {
				continue
			}
			f, ok := counts[raw]
			if !ok {
				f = &freq{word: raw, order: order}
				order++
				counts[raw] = f
			}
			f.count += weight
		}
	}
	add(title, 3)
	add(body, 1)

	ranked := make([]*freq, 0, len(counts))
	for _, f := range counts {
		ranked = append(ranked, f)
	}
	// Simple insertion-order-stable selection sort; the sets are tiny.
	for i := 0; i < len(ranked); i++ {
		best := i
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].count > ranked[best].count ||
				(ranked[j].count == ranked[best].count && ranked[j].order < ranked[best].order) {
				best = j
			}
		}
		ranked[i], ranked[best] = ranked[best], ranked[i]
	}

	keywords := make([]string, 0, max)
	for _, f := range ranked {
		keywords = append(keywords, f.word)
		if len(keywords) >= max {
			break
		}
	}
	return keywords
}

// ExtractErrorLocations parses stack-trace references out of free text.
// Locations are deduplicated by file basename: the first frame mentioning a
// file wins, later frames for the same file are dropped.
func ExtractErrorLocations(text string) []models.ErrorLocation {
	var locations []models.ErrorLocation
	seen := map[string]bool{}

	record := func(file, fn string, line, col int, context string) {
		base := filepath.Base(strings.ReplaceAll(file, "\\", "/"))
		if base == "" || base == "." || seen[base] {
			return
		}
		seen[base] = true
		locations = append(locations, models.ErrorLocation{
			File:         base,
			Line:         line,
			Column:       col,
			FunctionName: fn,
			Context:      strings.TrimSpace(context),
		})
	}

	for _, m := range framePython.FindAllStringSubmatch(text, -1) {
		line, _ := strconv.Atoi(m[2])
		record(m[1], m[3], line, 0, m[0])
	}
	for _, m := range frameWithFunc.FindAllStringSubmatch(text, -1) {
		line, _ := strconv.Atoi(m[3])
		col, _ := strconv.Atoi(m[4])
		record(m[2], m[1], line, col, m[0])
	}
	for _, m := range frameBare.FindAllStringSubmatch(text, -1) {
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		record(m[1], "", line, col, m[0])
	}
	for _, m := range frameLoose.FindAllStringSubmatch(text, -1) {
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		record(m[1], "", line, col, m[0])
	}

	return locations
}

// ExtractErrorMessages pulls error-looking lines ("TypeError: ...",
// "panic: ...") out of the text, deduplicated and capped.
func ExtractErrorMessages(text string) []string {
	var messages []string
	seen := map[string]bool{}
	for _, m := range errorLine.FindAllStringSubmatch(text, -1) {
		msg := strings.TrimSpace(m[1])
		if msg == "" || seen[msg] {
			continue
		}
		seen[msg] = true
		messages = append(messages, msg)
		if len(messages) >= 10 {
			break
		}
	}
	return messages
}

// Normalize fills a report's derived signal fields from its raw text,
// keeping any caller-supplied values. Runs once per pipeline invocation.
func Normalize(r *models.Report) {
	text := r.Title + "\n" + r.Body
	if len(r.Keywords) == 0 {
		r.Keywords = ExtractKeywords(r.Title, r.Body, 10)
	}
	if len(r.ErrorLocations) == 0 {
		r.ErrorLocations = ExtractErrorLocations(text)
	}
	if len(r.ErrorMessages) == 0 {
		r.ErrorMessages = ExtractErrorMessages(text)
	}
}
