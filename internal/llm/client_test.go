package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGenerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("Expected default model to be filled in, got %q", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", 5*time.Second)
	text, err := client.GenerateText(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "hello" {
		t.Errorf("Got %q", text)
	}
}

func TestGenerateTextNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "m", 5*time.Second)
	if _, err := client.GenerateText(context.Background(), GenerateRequest{Prompt: "hi"}); err == nil {
		t.Error("Expected error for non-200 status")
	}
}

func TestGenerateStructuredRetriesUntilParseable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		var text string
		if n < 3 {
			text = "sorry, no JSON today"
		} else {
			text = "```json\n{\"severity\": \"medium\"}\n```"
		}
		json.NewEncoder(w).Encode(map[string]string{"text": text})
	}))
	defer server.Close()

	client := NewClient(server.URL, "m", 5*time.Second)
	var out struct {
		Severity string `json:"severity"`
	}
	err := client.GenerateStructured(context.Background(), "classify", &out, StructuredOptions{
		Retries:   2,
		BaseDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("GenerateStructured: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
	if out.Severity != "medium" {
		t.Errorf("Got severity %q", out.Severity)
	}
}

func TestGenerateStructuredExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"text": "still prose"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "m", 5*time.Second)
	var out map[string]any
	err := client.GenerateStructured(context.Background(), "classify", &out, StructuredOptions{
		Retries:   1,
		BaseDelay: time.Millisecond,
	})
	if err == nil {
		t.Fatal("Expected failure after exhausting retries")
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls.Load())
	}
}

func TestGenerateStructuredSingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"text": "not json"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "m", 5*time.Second)
	var out map[string]any
	if err := client.GenerateStructured(context.Background(), "p", &out, StructuredOptions{}); err == nil {
		t.Fatal("Expected failure")
	}
	if calls.Load() != 1 {
		t.Errorf("Zero retries must mean one attempt, got %d", calls.Load())
	}
}
