// Package llm wraps an OpenRouter-compatible chat-completions backend.
// Both the strategy synthesizer and the evaluation judge go through the
// Client interface, so tests can substitute scripted responses.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"wallet-strategy-lab/internal/config"
	"wallet-strategy-lab/internal/observability"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Client issues chat-completion calls and returns the raw text answer.
type Client interface {
	// Complete sends messages to the named model. jsonMode requests a JSON
	// object response where the backend supports it.
	Complete(ctx context.Context, model string, messages []Message, jsonMode bool) (string, error)
}

// OpenRouterClient talks to an OpenRouter-compatible /chat/completions API.
type OpenRouterClient struct {
	http        *resty.Client
	temperature float64
	maxTokens   int
	log         *logrus.Logger
}

// NewOpenRouterClient builds a client from config. The HTTP timeout must
// cover worst-case prompt sizes: wallets with very long histories produce
// prompts that take well over a minute to answer.
func NewOpenRouterClient(cfg config.LLMConfig, log *logrus.Logger) *OpenRouterClient {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &OpenRouterClient{
		http:        http,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         log,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Client.
func (c *OpenRouterClient) Complete(ctx context.Context, model string, messages []Message, jsonMode bool) (string, error) {
	req := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	started := time.Now()
	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		observability.RecordLLMCall(model, "error", time.Since(started).Seconds())
		return "", fmt.Errorf("llm request: %w", err)
	}
	status := "ok"
	if resp.IsError() {
		status = "error"
	}
	observability.RecordLLMCall(model, status, time.Since(started).Seconds())
	c.log.WithFields(logrus.Fields{
		"model":   model,
		"status":  resp.StatusCode(),
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Debug("llm call completed")

	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("llm backend error: %s", msg)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llm response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// CompleteJSON calls Complete in JSON mode and unmarshals the answer into v.
// Code-fenced answers are unwrapped first; models occasionally fence their
// JSON even when asked not to.
func CompleteJSON(ctx context.Context, c Client, model string, messages []Message, v any) error {
	raw, err := c.Complete(ctx, model, messages, true)
	if err != nil {
		return err
	}
	cleaned := StripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("parse llm json: %w", err)
	}
	return nil
}

// StripFences removes a surrounding markdown code fence, if present.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
