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

// DefaultContentBudget bounds the article body sent to the generator, in bytes.
const DefaultContentBudget = 12000

var (
	errMissingSentiment = errors.New("stages: sentiment_analysis is missing")
	errMissingBias      = errors.New("stages: bias_shown is missing")
)

// biasReply requires both fields to be present in the generated object.
type biasReply struct {
	SentimentAnalysis *float64 `json:"sentiment_analysis"`
	BiasShown         *string  `json:"bias_shown"`
}

func (r biasReply) Validate() error {
	if r.SentimentAnalysis == nil {
		return errMissingSentiment
	}
	if r.BiasShown == nil {
		return errMissingBias
	}
	return r.score().Validate()
}

func (r biasReply) score() news.BiasScore {
	return news.BiasScore{SentimentAnalysis: *r.SentimentAnalysis, BiasShown: *r.BiasShown}
}

// Bias scores every successfully extracted article. Articles whose analysis
// never parses keep no score and carry an AnalysisError instead.
type Bias struct {
	Generator     textgen.Generator
	ContentBudget int
	Concurrency   int
	Logger        *slog.Logger
}

var _ pipeline.Stage = (*Bias)(nil)

func (b *Bias) Name() string        { return "analyze_bias" }
func (b *Bias) Reads() []state.Key  { return keys(KeyArticles, KeyQuerySubject, KeyHitCount) }
func (b *Bias) Writes() []state.Key { return keys(KeyArticles) }

func (b *Bias) Run(ctx context.Context, st state.State) (state.State, error) {
	articles, err := state.Value[news.Articles](st, KeyArticles)
	if err != nil {
		return st, err
	}
	subject, err := state.Value[string](st, KeyQuerySubject)
	if err != nil {
		return st, err
	}

	score := func(ctx context.Context, a news.Article) (news.Article, error) {
		return b.score(ctx, subject, a)
	}
	updated, err := forEachArticle(ctx, articles, b.Concurrency, news.Article.Extracted, score)
	if err != nil {
		return st, err
	}
	if err := validatePositions(st, updated); err != nil {
		return st, err
	}
	return st.Update(state.Changes{KeyArticles: updated}), nil
}

func (b *Bias) score(ctx context.Context, subject string, a news.Article) (news.Article, error) {
	logger := loggerOr(b.Logger).With("position", a.Position, "source", a.Source)

	budget := b.ContentBudget
	if budget == 0 {
		budget = DefaultContentBudget
	}
	content, trimmed := analyzer.Truncate(a.Extraction.Content, budget)
	if trimmed {
		logger.Debug("article content trimmed", "from", len(a.Extraction.Content), "to", len(content))
	}

	reply, err := textgen.GenerateJSON[biasReply](ctx, b.Generator, textgen.Prompt{
		System: biasSystemPrompt,
		User:   biasUserPrompt(subject, a, content),
	}, textgen.WithLogger(logger))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return a, ctxErr
		}
		logger.Warn("bias analysis failed", "err", err)
		a.BiasScore = nil
		a.AnalysisError = err.Error()
		return a, nil
	}

	result := reply.score()
	a.BiasScore = &result
	a.AnalysisError = ""
	return a, nil
}
