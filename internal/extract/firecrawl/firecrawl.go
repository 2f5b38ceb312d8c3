// Package firecrawl implements extract.Extractor on top of the Firecrawl v1
// scrape endpoint.
package firecrawl

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

	"github.com/FranksOps/slant/internal/extract"
	"github.com/FranksOps/slant/pkg/httpclient"
	"github.com/FranksOps/slant/pkg/ratelimit"
)

// DefaultBaseURL is the hosted Firecrawl API.
const DefaultBaseURL = "https://api.firecrawl.dev"

// Config configures the Firecrawl client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RPS bounds outgoing scrape calls. Zero disables limiting.
	RPS float64
}

// Client calls POST /v1/scrape with JSON-format extraction.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

var _ extract.Extractor = (*Client)(nil)

// New creates a Firecrawl client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("firecrawl: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	hc, err := httpclient.New(httpclient.Config{Timeout: cfg.Timeout, MaxRedirects: 3})
	if err != nil {
		return nil, fmt.Errorf("firecrawl: %w", err)
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

type jsonOptions struct {
	Schema       extract.Schema `json:"schema,omitempty"`
	SystemPrompt string         `json:"systemPrompt,omitempty"`
}

type scrapeRequest struct {
	URL                string      `json:"url"`
	Formats            []string    `json:"formats"`
	OnlyMainContent    bool        `json:"onlyMainContent"`
	JSONOptions        jsonOptions `json:"jsonOptions"`
	ExcludeTags        []string    `json:"excludeTags,omitempty"`
	IncludeTags        []string    `json:"includeTags,omitempty"`
	RemoveBase64Images bool        `json:"removeBase64Images"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		JSON *extract.Content `json:"json"`
	} `json:"data"`
}

// Extract scrapes req.URL. Non-2xx answers and transport errors are returned
// as *extract.AdapterFailure; a 200 without usable JSON data is a Result with
// Error set.
func (c *Client) Extract(ctx context.Context, req extract.Request) (extract.Result, error) {
	if req.Schema == nil {
		req.Schema = extract.ArticleSchema
	}
	if req.Instruction == "" {
		req.Instruction = extract.DefaultInstruction
	}

	body, err := json.Marshal(scrapeRequest{
		URL:                req.URL,
		Formats:            []string{"json"},
		OnlyMainContent:    req.OnlyMainContent,
		JSONOptions:        jsonOptions{Schema: req.Schema, SystemPrompt: req.Instruction},
		ExcludeTags:        req.ExcludeTags,
		IncludeTags:        req.IncludeTags,
		RemoveBase64Images: req.RemoveBase64Images,
	})
	if err != nil {
		return extract.Result{}, fmt.Errorf("firecrawl: marshal request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return extract.Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return extract.Result{}, fmt.Errorf("firecrawl: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	var resp scrapeResponse
	if err := c.http.DoJSON(ctx, httpReq, &resp); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return extract.Result{}, ctxErr
		}
		failure := &extract.AdapterFailure{URL: req.URL, Err: err}
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			failure.StatusCode = statusErr.StatusCode
			failure.Err = errors.New(strings.TrimSpace(string(statusErr.Body)))
		}
		return extract.Result{}, failure
	}

	c.logger.Debug("scrape complete", "url", req.URL, "success", resp.Success, "duration", time.Since(start))

	switch {
	case resp.Error != "":
		return extract.Result{Error: resp.Error}, nil
	case resp.Data.JSON == nil:
		return extract.Result{Error: "firecrawl: response carried no json data"}, nil
	case strings.TrimSpace(resp.Data.JSON.Content) == "":
		return extract.Result{Error: extract.ErrEmptyContent.Error()}, nil
	}
	return extract.Result{Data: resp.Data.JSON}, nil
}
