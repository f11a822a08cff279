// Package ollama is a small HTTP client for a local Ollama server, covering
// the embedding and text-generation endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama: status %d: %s", e.StatusCode, e.Body)
}

// Client calls a single Ollama host.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	attempts uint
	delay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRetry sets the number of attempts and the delay between them for
// transport errors and 5xx responses.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(cl *Client) {
		cl.attempts = attempts
		cl.delay = delay
	}
}

// NewClient creates a client for the Ollama server at baseURL. timeout bounds
// each request.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		timeout:  timeout,
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Older servers answer /api/embeddings with "embedding"; /api/embed answers
// with "embeddings". Both are accepted.
type embeddingResponse struct {
	Embedding  []float64   `json:"embedding"`
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns the embedding vector of text under model.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float64, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("Embed: embedding model is empty")
	}

	var parsed embeddingResponse
	payload := map[string]any{"model": model, "prompt": text}
	if err := c.post(ctx, "/api/embeddings", payload, &parsed); err != nil {
		return nil, fmt.Errorf("Embed: %w", err)
	}

	vec := parsed.Embedding
	if len(vec) == 0 && len(parsed.Embeddings) > 0 {
		vec = parsed.Embeddings[0]
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("Embed: response returned empty vector")
	}
	return vec, nil
}

// /api/generate answers with "response"; chat-style servers answer with
// message.content.
type generateResponse struct {
	Response string `json:"response"`
	Message  *struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Generate runs a non-streaming completion of prompt with an optional system
// prompt.
func (c *Client) Generate(ctx context.Context, model, prompt, system string) (string, error) {
	payload := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	}
	if system != "" {
		payload["system"] = system
	}

	var parsed generateResponse
	if err := c.post(ctx, "/api/generate", payload, &parsed); err != nil {
		return "", fmt.Errorf("Generate: %w", err)
	}

	text := parsed.Response
	if text == "" && parsed.Message != nil {
		text = parsed.Message.Content
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return retry.Do(
		func() error {
			return c.do(ctx, path, body, out)
		},
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode >= 500
			}
			return true
		}),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) do(ctx context.Context, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
