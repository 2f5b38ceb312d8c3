// Package groq is a textgen.Generator backed by Groq's OpenAI-compatible
// chat completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FranksOps/slant/internal/textgen"
	"github.com/FranksOps/slant/pkg/httpclient"
	"github.com/FranksOps/slant/pkg/ratelimit"
)

const (
	DefaultBaseURL = "https://api.groq.com"
	DefaultModel   = "llama-3.1-8b-instant"
)

// Config configures the Groq client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// RPS bounds outgoing completions. Zero disables limiting.
	RPS float64
}

// Client implements textgen.Generator.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

var _ textgen.Generator = (*Client)(nil)

// APIError is a non-2xx answer from the completions endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groq: status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the server asked the caller to back off.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// New creates a Groq client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("groq: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	hc, err := httpclient.New(httpclient.Config{Timeout: cfg.Timeout, MaxRedirects: 3})
	if err != nil {
		return nil, fmt.Errorf("groq: %w", err)
	}

	return &Client{
		cfg:     cfg,
		http:    hc,
		limiter: ratelimit.NewLimiter(cfg.RPS, 0),
		logger:  logger,
	}, nil
}

// Close releases the rate limiter.
func (c *Client) Close() {
	c.limiter.Stop()
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one system + user exchange and returns the first choice.
func (c *Client) Complete(ctx context.Context, p textgen.Prompt) (string, error) {
	system := p.System
	if system == "" {
		system = textgen.DefaultSystemPrompt
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: p.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("groq: marshal request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/openai/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("groq: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	var resp chatCompletionResponse
	if err := c.http.DoJSON(ctx, req, &resp); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			apiErr := toAPIError(statusErr)
			c.logger.Warn("completion rejected", "model", c.cfg.Model, "status", apiErr.StatusCode, "retryable", apiErr.Retryable())
			return "", apiErr
		}
		return "", fmt.Errorf("groq: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("groq: response contained no choices")
	}

	c.logger.Debug("completion done", "model", c.cfg.Model, "duration", time.Since(start))
	return resp.Choices[0].Message.Content, nil
}

func toAPIError(statusErr *httpclient.StatusError) *APIError {
	apiErr := &APIError{StatusCode: statusErr.StatusCode, Message: strings.TrimSpace(string(statusErr.Body))}
	var errResp errorResponse
	if err := json.Unmarshal(statusErr.Body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
	}
	return apiErr
}
