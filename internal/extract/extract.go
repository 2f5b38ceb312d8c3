// Package extract defines the contract between the scraping stage and the
// services that turn an article URL into its title and body.
package extract

import (
	"context"
	"errors"
	"fmt"
)

// Schema describes the JSON object an extractor is asked to return. It is
// passed through verbatim to providers that accept a JSON schema.
type Schema map[string]any

// ArticleSchema requests the main title and body of a news article.
var ArticleSchema = Schema{
	"type": "object",
	"properties": map[string]any{
		"main_article_title":   map[string]any{"type": "string"},
		"main_article_content": map[string]any{"type": "string"},
	},
	"required": []string{"main_article_title", "main_article_content"},
}

// DefaultInstruction is the extraction prompt sent alongside the schema.
const DefaultInstruction = "Extract out the main title of the article and the main contents of the article. Don't pull any advertisement or extraneous information."

// Request is a single extraction job.
type Request struct {
	URL                string
	ExcludeTags        []string
	IncludeTags        []string
	Schema             Schema
	Instruction        string
	OnlyMainContent    bool
	RemoveBase64Images bool
}

// Content is the structured payload of a successful extraction.
type Content struct {
	Title   string `json:"main_article_title"`
	Content string `json:"main_article_content"`
}

// Result is either Data or a non-empty Error. A provider may succeed at the
// transport level and still report a per-page error.
type Result struct {
	Data  *Content
	Error string
}

// OK reports whether Data is usable.
func (r Result) OK() bool {
	return r.Error == "" && r.Data != nil
}

// Extractor fetches and extracts one article.
type Extractor interface {
	Extract(ctx context.Context, req Request) (Result, error)
}

// ErrEmptyContent is reported when a page yields no body text.
var ErrEmptyContent = errors.New("extract: no article content found")

// AdapterFailure is returned by an Extractor when the upstream call failed.
// StatusCode is zero for transport errors.
type AdapterFailure struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *AdapterFailure) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("extract: %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("extract: %s: %v", e.URL, e.Err)
}

func (e *AdapterFailure) Unwrap() error {
	return e.Err
}
