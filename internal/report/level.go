package report

import (
	"regexp"
	"strings"

	"github.com/bugscope/backend/internal/models"
)

type QualityTier string

const (
	QualityLow    QualityTier = "low"
	QualityMedium QualityTier = "medium"
	QualityHigh   QualityTier = "high"
)

type ComplexityTier string

const (
	ComplexitySimple   ComplexityTier = "simple"
	ComplexityModerate ComplexityTier = "moderate"
	ComplexityComplex  ComplexityTier = "complex"
)

var stepsPattern = regexp.MustCompile(`(?im)^\s*(?:\d+[.)]|[-*]\s+|steps to reproduce)`)

// DescriptionQuality buckets the report body. A short body with neither a
// code block nor reproduction steps is low; a long body carrying either is
// high; everything else is medium.
func DescriptionQuality(body string) QualityTier {
	hasCode := strings.Contains(body, "```")
	hasSteps := stepsPattern.MatchString(body)

	switch {
	case len(body) < 200 && !hasCode && !hasSteps:
		return QualityLow
	case len(body) >= 600 && (hasCode || hasSteps):
		return QualityHigh
	default:
		return QualityMedium
	}
}

// ErrorComplexity buckets by the number of distinct error locations.
func ErrorComplexity(locations []models.ErrorLocation) ComplexityTier {
	switch n := len(locations); {
	case n > 5:
		return ComplexityComplex
	case n >= 2:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}

// LevelScore is the documented additive escalation heuristic. The quality
// and complexity signals are bucketed first and only the extreme buckets
// contribute. The rule is reproduced as documented, including its known
// non-orthogonality between moderate complexity and sparse descriptions.
func LevelScore(r *models.Report) int {
	score := 0
	if len(r.ErrorLocations) == 0 {
		score++
	}
	if len(r.ErrorMessages) == 0 {
		score++
	}
	if DescriptionQuality(r.Body) == QualityLow {
		score += 2
	}
	if ErrorComplexity(r.ErrorLocations) == ComplexityComplex {
		score += 2
	}
	return score
}

// DetermineLevel maps the heuristic score to an analysis level. A non-zero
// caller override always wins.
func DetermineLevel(r *models.Report, override int) models.AnalysisLevel {
	switch override {
	case 1:
		return models.LevelFast
	case 2:
		return models.LevelThorough
	}
	if LevelScore(r) >= 3 {
		return models.LevelThorough
	}
	return models.LevelFast
}
