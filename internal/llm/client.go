// Package llm talks to the generative text service (Gemini) and turns
// its unreliable output into typed pipeline data. The Client is NOT
// safe for concurrent use across enrichment tasks; each task must
// construct its own handle.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/datacube/aihub/internal/metrics"
	"github.com/datacube/aihub/internal/ratelimit"
)

// Completer is the single-turn prompt -> text contract every
// LLM-calling stage depends on.
type Completer interface {
	Complete(ctx context.Context, model, prompt string, temperature float32) (string, error)
}

// Client wraps the Gemini API.
type Client struct {
	client  *genai.Client
	budget  *ratelimit.Budget
	timeout time.Duration
}

var _ Completer = (*Client)(nil)

// NewClient builds a fresh Gemini handle. Budget may be shared across
// clients (it is concurrency-safe); the handle itself may not.
func NewClient(ctx context.Context, apiKey string, budget *ratelimit.Budget, timeout time.Duration) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, budget: budget, timeout: timeout}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Complete issues one generation request and returns the raw text.
func (c *Client) Complete(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	if c.budget != nil {
		if err := c.budget.Use(); err != nil {
			return "", err
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	m := c.client.GenerativeModel(model)
	m.SetTemperature(temperature)

	metrics.Global.IncrementLLMCalls()
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		metrics.Global.IncrementLLMFailures()
		return "", fmt.Errorf("generate content (model=%s): %w", model, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		metrics.Global.IncrementLLMFailures()
		return "", fmt.Errorf("empty response from model %s", model)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
