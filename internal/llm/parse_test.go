package llm

import (
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  plain text  ", "plain text"},
	}
	for _, c := range cases {
		if got := StripCodeFence(c.in); got != c.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseStructuredDirect(t *testing.T) {
	var out struct {
		Severity string `json:"severity"`
	}
	if err := ParseStructured(`{"severity":"high"}`, &out); err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if out.Severity != "high" {
		t.Errorf("Got severity %q", out.Severity)
	}
}

func TestParseStructuredEmbeddedInProse(t *testing.T) {
	text := "Here is my analysis:\n\n{\"severity\": \"low\", \"summary\": \"a {nested} brace in \\\"text\\\"\"}\n\nHope that helps!"

	var out struct {
		Severity string `json:"severity"`
		Summary  string `json:"summary"`
	}
	if err := ParseStructured(text, &out); err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if out.Severity != "low" {
		t.Errorf("Got severity %q", out.Severity)
	}
}

func TestParseStructuredArray(t *testing.T) {
	text := "The ranked list follows: [{\"path\": \"a.ts\"}, {\"path\": \"b.ts\"}] done."

	var out []struct {
		Path string `json:"path"`
	}
	if err := ParseStructured(text, &out); err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if len(out) != 2 || out[1].Path != "b.ts" {
		t.Errorf("Unexpected result: %+v", out)
	}
}

func TestParseStructuredRejectsNonJSON(t *testing.T) {
	var out map[string]any
	if err := ParseStructured("I could not produce a ranking.", &out); err == nil {
		t.Error("Expected an error for prose-only response")
	}
	if err := ParseStructured("", &out); err == nil {
		t.Error("Expected an error for empty response")
	}
}
