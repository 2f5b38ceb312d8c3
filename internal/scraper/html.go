package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FranksOps/slant/internal/extract"
	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrDisallowed is the cause of a failure for URLs robots.txt forbids.
	ErrDisallowed = errors.New("scraper: disallowed by robots.txt")
	// ErrBlocked is the cause of a failure for bot-challenge pages.
	ErrBlocked = errors.New("scraper: blocked by bot protection")
)

// noise is always stripped before selecting content.
const noise = "script, style, noscript, iframe, svg, form, template"

// mainContent are tried in order to scope OnlyMainContent requests.
var mainContent = []string{"article", "main", "[role=main]"}

// HTMLConfig configures an HTMLExtractor.
type HTMLConfig struct {
	// RespectRobots consults robots.txt before every fetch.
	RespectRobots bool
	// RobotsAgent is the agent token matched against robots.txt groups.
	RobotsAgent string
}

// HTMLExtractor implements extract.Extractor by fetching the page itself and
// filtering it with CSS selectors.
type HTMLExtractor struct {
	cfg     HTMLConfig
	fetcher *Fetcher
	robots  *RobotsTxtAuditor
	logger  *slog.Logger
}

var _ extract.Extractor = (*HTMLExtractor)(nil)

// NewHTMLExtractor creates an extractor on top of fetcher.
func NewHTMLExtractor(cfg HTMLConfig, fetcher *Fetcher, logger *slog.Logger) *HTMLExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RobotsAgent == "" {
		cfg.RobotsAgent = "slant"
	}
	h := &HTMLExtractor{cfg: cfg, fetcher: fetcher, logger: logger}
	if cfg.RespectRobots {
		h.robots = NewRobotsTxtAuditor(fetcher, logger)
	}
	return h
}

// Extract fetches req.URL, drops req.ExcludeTags and collects the text of
// req.IncludeTags in document order. The first h1 (or the page title) becomes
// the article title.
func (h *HTMLExtractor) Extract(ctx context.Context, req extract.Request) (extract.Result, error) {
	if h.robots != nil {
		allowed, err := h.robots.IsAllowed(ctx, req.URL, h.cfg.RobotsAgent)
		if err != nil {
			return extract.Result{}, &extract.AdapterFailure{URL: req.URL, Err: err}
		}
		if !allowed {
			return extract.Result{}, &extract.AdapterFailure{URL: req.URL, Err: ErrDisallowed}
		}
	}

	page, err := h.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return extract.Result{}, ctxErr
		}
		return extract.Result{}, &extract.AdapterFailure{URL: req.URL, Err: err}
	}

	if page.BlockedBy != "" {
		h.logger.Warn("article fetch challenged", "url", req.URL, "vendor", page.BlockedBy)
		return extract.Result{}, &extract.AdapterFailure{
			URL:        req.URL,
			StatusCode: page.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrBlocked, page.BlockedBy),
		}
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return extract.Result{}, &extract.AdapterFailure{
			URL:        req.URL,
			StatusCode: page.StatusCode,
			Err:        errors.New("scraper: unexpected status"),
		}
	}

	content, err := Parse(page.Body, req)
	if err != nil {
		return extract.Result{Error: err.Error()}, nil
	}
	return extract.Result{Data: content}, nil
}

// Parse applies the request's tag filters to an HTML document.
func Parse(body []byte, req extract.Request) (*extract.Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scraper: parse html: %w", err)
	}

	pageTitle := collapse(doc.Find("title").First().Text())

	root := doc.Selection
	if req.OnlyMainContent {
		for _, sel := range mainContent {
			if found := doc.Find(sel).First(); found.Length() > 0 {
				root = found
				break
			}
		}
	}

	root.Find(noise).Remove()
	for _, sel := range req.ExcludeTags {
		root.Find(sel).Remove()
	}

	title := collapse(root.Find("h1").First().Text())
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = pageTitle
	}

	var parts []string
	if len(req.IncludeTags) > 0 {
		root.Find(strings.Join(req.IncludeTags, ", ")).Each(func(_ int, s *goquery.Selection) {
			if goquery.NodeName(s) == "h1" && collapse(s.Text()) == title {
				return
			}
			if text := collapse(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
	} else if text := collapse(root.Text()); text != "" {
		parts = append(parts, text)
	}

	if len(parts) == 0 {
		return nil, extract.ErrEmptyContent
	}
	return &extract.Content{Title: title, Content: strings.Join(parts, "\n\n")}, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
