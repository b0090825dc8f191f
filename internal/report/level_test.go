package report

import (
	"strings"
	"testing"

	"github.com/bugscope/backend/internal/models"
)

func TestDetermineLevelSparseReportEscalates(t *testing.T) {
	// No locations (+1), no messages (+1), short plain body (+2) = 4.
	r := &models.Report{
		Title: "Something is broken",
		Body:  "It does not work.",
	}

	if got := DetermineLevel(r, 0); got != models.LevelThorough {
		t.Errorf("Expected thorough level for sparse report, got %d", got)
	}
}

func TestDetermineLevelRichReportStaysFast(t *testing.T) {
	body := "Steps to reproduce:\n1. open the cart\n2. apply a code\n\n```\nTypeError: boom\n    at apply (src/cart.ts:10:2)\n```\n" +
		strings.Repeat("More detail about the failure and the environment. ", 12)
	r := &models.Report{
		Title:          "Cart total wrong",
		Body:           body,
		ErrorLocations: []models.ErrorLocation{{File: "cart.ts", Line: 10}},
		ErrorMessages:  []string{"TypeError: boom"},
	}

	if score := LevelScore(r); score != 0 {
		t.Errorf("Expected score 0 for rich report, got %d", score)
	}
	if got := DetermineLevel(r, 0); got != models.LevelFast {
		t.Errorf("Expected fast level for rich report, got %d", got)
	}
}

func TestDetermineLevelOverrideWins(t *testing.T) {
	sparse := &models.Report{Title: "x", Body: "y"}

	if got := DetermineLevel(sparse, 1); got != models.LevelFast {
		t.Errorf("Override 1 should force fast, got %d", got)
	}
	rich := &models.Report{
		Title:          "x",
		Body:           strings.Repeat("detail ", 100) + "\n```code```",
		ErrorLocations: []models.ErrorLocation{{File: "a.ts"}},
		ErrorMessages:  []string{"Error: a"},
	}
	if got := DetermineLevel(rich, 2); got != models.LevelThorough {
		t.Errorf("Override 2 should force thorough, got %d", got)
	}
}

func TestErrorComplexityBuckets(t *testing.T) {
	mk := func(n int) []models.ErrorLocation {
		locs := make([]models.ErrorLocation, n)
		return locs
	}

	if got := ErrorComplexity(mk(0)); got != ComplexitySimple {
		t.Errorf("0 locations: expected simple, got %s", got)
	}
	if got := ErrorComplexity(mk(3)); got != ComplexityModerate {
		t.Errorf("3 locations: expected moderate, got %s", got)
	}
	if got := ErrorComplexity(mk(6)); got != ComplexityComplex {
		t.Errorf("6 locations: expected complex, got %s", got)
	}
}

func TestDescriptionQualityBuckets(t *testing.T) {
	if got := DescriptionQuality("short"); got != QualityLow {
		t.Errorf("Expected low, got %s", got)
	}
	long := strings.Repeat("a detailed explanation of the bug ", 20) + "\n1. do this\n2. do that"
	if got := DescriptionQuality(long); got != QualityHigh {
		t.Errorf("Expected high, got %s", got)
	}
	medium := "Steps to reproduce:\n1. click the button"
	if got := DescriptionQuality(medium); got != QualityMedium {
		t.Errorf("Expected medium, got %s", got)
	}
}
