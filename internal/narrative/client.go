// Package narrative turns the weekly activity payload into a short coaching
// summary through an OpenAI-compatible chat-completions service.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Request defaults.
const (
	DefaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel       = "openai/gpt-4o-mini"
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.6
)

// SystemPrompt is the fixed instruction sent with every request.
const SystemPrompt = "You are a concise productivity coach. Given a user's weekly activity from DevFlow " +
	"(projects, notes, code snippets), write a brief, encouraging weekly summary in 2-4 short paragraphs. " +
	"Highlight progress, completed work, and one gentle suggestion. Keep tone positive and under 150 words. " +
	"Use plain text, no markdown headers."

// Generator produces summary text from an activity payload.
type Generator interface {
	Generate(ctx context.Context, payload string) (string, error)
}

// Client calls a chat-completions endpoint. It never retries.
type Client struct {
	apiKey      string
	endpoint    string
	model       string
	referer     string
	maxTokens   int
	temperature float64
	http        *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the chat-completions URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.endpoint = url
		}
	}
}

// WithModel overrides the model identifier.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithReferer sets the HTTP-Referer header OpenRouter uses for attribution.
func WithReferer(referer string) Option {
	return func(c *Client) { c.referer = referer }
}

// WithMaxTokens overrides the output-token budget.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient returns a client authenticating with apiKey. An empty key is
// accepted here and reported by Generate as ErrMissingAPIKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      strings.TrimSpace(apiKey),
		endpoint:    DefaultEndpoint,
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		http:        http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Generator = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message any `json:"message"`
}

// Generate sends payload as the user message and returns the trimmed
// completion text.
func (c *Client) Generate(ctx context.Context, payload string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: payload},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("narrative: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("narrative: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("narrative: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ServiceError{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("narrative: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// errorMessage prefers error.message, then a top-level string message,
// then the HTTP status line.
func errorMessage(raw []byte, resp *http.Response) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		if er.Error != nil && er.Error.Message != "" {
			return er.Error.Message
		}
		if msg, ok := er.Message.(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
