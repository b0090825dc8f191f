package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Generator is the text-generation capability the pipeline consumes. The
// inference service behind it is an opaque collaborator; every response is
// parsed defensively.
type Generator interface {
	GenerateText(ctx context.Context, req GenerateRequest) (string, error)
	GenerateStructured(ctx context.Context, prompt string, out any, opts StructuredOptions) error
}

type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type StructuredOptions struct {
	MaxTokens int
	// Retries applies exponential backoff with a doubling base delay. Zero
	// means a single attempt; best-effort sub-steps stay at zero, only the
	// top-level structured analysis call sets it.
	Retries   int
	BaseDelay time.Duration
}

type generateResponse struct {
	Text string `json:"text"`
}

// Client talks to the inference service over HTTP JSON.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateText performs one generation call, no retries.
func (c *Client) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, string(raw))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return genResp.Text, nil
}

// GenerateStructured asks for JSON and unmarshals it into out, stripping
// code fences first. Each failed attempt doubles the backoff delay.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, out any, opts StructuredOptions) error {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}

	fullPrompt := prompt + "\n\nRespond with valid JSON only, no prose."

	attempts := opts.Retries + 1
	delay := opts.BaseDelay
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		text, err := c.GenerateText(ctx, GenerateRequest{
			Prompt:    fullPrompt,
			MaxTokens: opts.MaxTokens,
		})
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		if err := ParseStructured(text, out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("structured generation failed after %d attempts: %w", attempts, lastErr)
}
