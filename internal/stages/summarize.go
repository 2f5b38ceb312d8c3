package stages

import (
	"context"
	"errors"
	"log/slog"

	"github.com/FranksOps/slant/internal/analyzer"
	"github.com/FranksOps/slant/internal/news"
	"github.com/FranksOps/slant/internal/pipeline"
	"github.com/FranksOps/slant/internal/state"
	"github.com/FranksOps/slant/internal/textgen"
)

var errEmptySummary = errors.New("stages: summary is empty")

type summaryReply news.Summary

func (s summaryReply) Validate() error {
	if s.Summary == "" {
		return errEmptySummary
	}
	return nil
}

// Summarize attaches a short digest and main points to every extracted
// article. Failures leave the summary unset.
type Summarize struct {
	Generator     textgen.Generator
	ContentBudget int
	Concurrency   int
	Logger        *slog.Logger
}

var _ pipeline.Stage = (*Summarize)(nil)

func (s *Summarize) Name() string        { return "summarize_articles" }
func (s *Summarize) Reads() []state.Key  { return keys(KeyArticles, KeyHitCount) }
func (s *Summarize) Writes() []state.Key { return keys(KeyArticles) }

func (s *Summarize) Run(ctx context.Context, st state.State) (state.State, error) {
	articles, err := state.Value[news.Articles](st, KeyArticles)
	if err != nil {
		return st, err
	}

	updated, err := forEachArticle(ctx, articles, s.Concurrency, news.Article.Extracted, s.summarize)
	if err != nil {
		return st, err
	}
	if err := validatePositions(st, updated); err != nil {
		return st, err
	}
	return st.Update(state.Changes{KeyArticles: updated}), nil
}

func (s *Summarize) summarize(ctx context.Context, a news.Article) (news.Article, error) {
	logger := loggerOr(s.Logger).With("position", a.Position, "source", a.Source)

	budget := s.ContentBudget
	if budget == 0 {
		budget = DefaultContentBudget
	}
	content, _ := analyzer.Truncate(a.Extraction.Content, budget)

	reply, err := textgen.GenerateJSON[summaryReply](ctx, s.Generator, textgen.Prompt{
		System: summarizeSystemPrompt,
		User:   summarizeUserPrompt(a, content),
	}, textgen.WithLogger(logger))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return a, ctxErr
		}
		logger.Warn("summary failed", "err", err)
		return a, nil
	}

	summary := news.Summary(reply)
	a.Summary = &summary
	return a, nil
}
