package serp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/FranksOps/slant/pkg/httpclient"
)

// DefaultSerpAPIURL is the SerpAPI JSON search endpoint.
const DefaultSerpAPIURL = "https://serpapi.com/search.json"

// SerpAPIConfig configures the SerpAPI provider.
type SerpAPIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// SerpAPI implements Provider against serpapi.com.
type SerpAPI struct {
	cfg    SerpAPIConfig
	client *httpclient.Client
	logger *slog.Logger
}

var _ Provider = (*SerpAPI)(nil)

// NewSerpAPI creates a SerpAPI provider.
func NewSerpAPI(cfg SerpAPIConfig, logger *slog.Logger) (*SerpAPI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("serp: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSerpAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := httpclient.New(httpclient.Config{Timeout: cfg.Timeout, MaxRedirects: 3})
	if err != nil {
		return nil, fmt.Errorf("serp: %w", err)
	}

	return &SerpAPI{cfg: cfg, client: client, logger: logger}, nil
}

type serpAPIResponse struct {
	NewsResults []Hit  `json:"news_results"`
	Error       string `json:"error"`
}

// Search runs a single query and returns the hits in rank order.
func (s *SerpAPI) Search(ctx context.Context, params Params) ([]Hit, error) {
	q := url.Values{}
	q.Set("api_key", s.cfg.APIKey)
	q.Set("engine", params.Engine)
	q.Set("q", params.Query)
	q.Set("tbm", params.ResultType)
	q.Set("num", strconv.Itoa(params.Num))
	q.Set("gl", params.Country)
	q.Set("hl", params.Language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("serp: build request: %w", err)
	}

	start := time.Now()
	var resp serpAPIResponse
	if err := s.client.DoJSON(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("serp: search failed: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("serp: search failed: %s", resp.Error)
	}

	s.logger.Debug("search complete", "query", params.Query, "hits", len(resp.NewsResults), "duration", time.Since(start))
	return resp.NewsResults, nil
}
