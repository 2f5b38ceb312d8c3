package stages

import (
	"context"
	"errors"
	"log/slog"

	"github.com/FranksOps/slant/internal/extract"
	"github.com/FranksOps/slant/internal/metrics"
	"github.com/FranksOps/slant/internal/news"
	"github.com/FranksOps/slant/internal/pipeline"
	"github.com/FranksOps/slant/internal/state"
)

// Scrape extracts the title and body of every article. A failing URL only
// marks its own article; the batch always completes.
type Scrape struct {
	Extractor   extract.Extractor
	Publishers  news.Publishers
	IncludeTags []string
	Concurrency int
	Logger      *slog.Logger
}

var _ pipeline.Stage = (*Scrape)(nil)

func (s *Scrape) Name() string        { return "scrape_articles" }
func (s *Scrape) Reads() []state.Key  { return keys(KeyArticles, KeyHitCount) }
func (s *Scrape) Writes() []state.Key { return keys(KeyArticles) }

func (s *Scrape) Run(ctx context.Context, st state.State) (state.State, error) {
	articles, err := state.Value[news.Articles](st, KeyArticles)
	if err != nil {
		return st, err
	}

	all := func(news.Article) bool { return true }
	updated, err := forEachArticle(ctx, articles, s.Concurrency, all, s.scrape)
	if err != nil {
		return st, err
	}
	if err := validatePositions(st, updated); err != nil {
		return st, err
	}
	return st.Update(state.Changes{KeyArticles: updated}), nil
}

func (s *Scrape) scrape(ctx context.Context, a news.Article) (news.Article, error) {
	logger := loggerOr(s.Logger).With("position", a.Position, "source", a.Source)

	req := extract.Request{
		URL:                a.Link,
		IncludeTags:        s.includeTags(),
		Schema:             extract.ArticleSchema,
		Instruction:        extract.DefaultInstruction,
		OnlyMainContent:    true,
		RemoveBase64Images: true,
	}
	if p, ok := s.Publishers.Lookup(a.Source); ok {
		req.ExcludeTags = p.ExcludeTags
	}

	res, err := s.Extractor.Extract(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return a, ctxErr
		}
		var failure *extract.AdapterFailure
		if errors.As(err, &failure) && failure.StatusCode != 0 {
			logger.Warn("extraction failed", "link", a.Link, "status", failure.StatusCode, "err", err)
		} else {
			logger.Warn("extraction failed", "link", a.Link, "err", err)
		}
		metrics.RecordExtraction(a.Source, "error")
		a.Extraction = news.FailedExtraction(err)
		return a, nil
	}

	if !res.OK() {
		msg := res.Error
		if msg == "" {
			msg = extract.ErrEmptyContent.Error()
		}
		logger.Warn("extraction returned no content", "link", a.Link, "err", msg)
		metrics.RecordExtraction(a.Source, "error")
		a.Extraction = &news.Extraction{Error: msg}
		return a, nil
	}

	metrics.RecordExtraction(a.Source, "ok")
	a.Extraction = &news.Extraction{Title: res.Data.Title, Content: res.Data.Content}
	return a, nil
}

func (s *Scrape) includeTags() []string {
	if len(s.IncludeTags) == 0 {
		return DefaultIncludeTags
	}
	return s.IncludeTags
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
