// Package stages implements the news bias pipeline: search, grouping,
// subject extraction, scraping, optional summarization, per-article bias
// analysis and the cross-outlet comparison.
package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FranksOps/slant/internal/extract"
	"github.com/FranksOps/slant/internal/news"
	"github.com/FranksOps/slant/internal/pipeline"
	"github.com/FranksOps/slant/internal/serp"
	"github.com/FranksOps/slant/internal/state"
	"github.com/FranksOps/slant/internal/textgen"
	"github.com/google/uuid"
)

// ErrEmptyQuestion is returned by Analyze for a blank question.
var ErrEmptyQuestion = errors.New("stages: question is empty")

// Deps are the external collaborators of the pipeline.
type Deps struct {
	Search    serp.Provider
	Extractor extract.Extractor
	Generator textgen.Generator
}

// Options configure the pipeline. Zero values select defaults.
type Options struct {
	Publishers       news.Publishers
	IncludeTags      []string
	SearchDefaults   serp.Defaults
	UnknownPublisher news.UnknownPublisherPolicy
	// Concurrency > 1 fans per-article work out over that many workers.
	Concurrency     int
	Summarize       bool
	ContentBudget   int
	StrictContracts bool
}

// Result is everything a run produced.
type Result struct {
	RunID            string            `json:"run_id"`
	Question         string            `json:"question"`
	QuerySubject     string            `json:"query_subject"`
	ComparisonReport string            `json:"comparison_report"`
	Articles         news.Articles     `json:"articles"`
	Skipped          []news.SkippedHit `json:"skipped_hits,omitempty"`
	SearchParams     serp.Params       `json:"search_parameters"`
	StartedAt        time.Time         `json:"started_at"`
	Duration         time.Duration     `json:"duration"`
}

// Analyzer answers a news question end to end.
type Analyzer struct {
	runner *pipeline.Runner
	logger *slog.Logger
}

// New wires the stages in their fixed order.
func New(deps Deps, opts Options, logger *slog.Logger) (*Analyzer, error) {
	if deps.Search == nil || deps.Extractor == nil || deps.Generator == nil {
		return nil, errors.New("stages: search, extractor and generator are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UnknownPublisher == "" {
		opts.UnknownPublisher = news.PolicySkip
	}

	stageList := []pipeline.Stage{
		&SearchParameters{Sites: opts.Publishers.Domains(), Defaults: opts.SearchDefaults},
		&Search{Provider: deps.Search, Publishers: opts.Publishers, Policy: opts.UnknownPublisher, Logger: logger},
		GroupBySource(),
		&Subject{Generator: deps.Generator},
		&Scrape{
			Extractor:   deps.Extractor,
			Publishers:  opts.Publishers,
			IncludeTags: opts.IncludeTags,
			Concurrency: opts.Concurrency,
			Logger:      logger,
		},
	}
	if opts.Summarize {
		stageList = append(stageList, &Summarize{
			Generator:     deps.Generator,
			ContentBudget: opts.ContentBudget,
			Concurrency:   opts.Concurrency,
			Logger:        logger,
		})
	}
	stageList = append(stageList,
		&Bias{
			Generator:     deps.Generator,
			ContentBudget: opts.ContentBudget,
			Concurrency:   opts.Concurrency,
			Logger:        logger,
		},
		&Compare{Generator: deps.Generator, Logger: logger},
	)

	return &Analyzer{
		runner: pipeline.New(logger, pipeline.Options{StrictContracts: opts.StrictContracts}, stageList...),
		logger: logger,
	}, nil
}

// Stages returns the configured stages in execution order.
func (a *Analyzer) Stages() []pipeline.Stage {
	return a.runner.Stages()
}

// Analyze runs the pipeline for question.
func (a *Analyzer) Analyze(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Question:  question,
		StartedAt: time.Now().UTC(),
	}
	logger := a.logger.With("run_id", res.RunID)
	logger.Info("analysis started", "question", question)

	final, err := a.runner.Run(ctx, state.New().Update(state.Changes{KeyOriginalUserInput: question}))
	res.Duration = time.Since(res.StartedAt)
	if err != nil {
		logger.Error("analysis failed", "err", err, "duration", res.Duration)
		return nil, err
	}

	if err := collect(final, res); err != nil {
		return nil, err
	}

	logger.Info("analysis complete", "articles", res.Articles.Len(), "skipped", len(res.Skipped), "duration", res.Duration)
	return res, nil
}

func collect(st state.State, res *Result) error {
	var err error
	if res.QuerySubject, err = state.Value[string](st, KeyQuerySubject); err != nil {
		return fmt.Errorf("stages: collect result: %w", err)
	}
	if res.ComparisonReport, err = state.Value[string](st, KeyComparisonReport); err != nil {
		return fmt.Errorf("stages: collect result: %w", err)
	}
	if res.Articles, err = state.Value[news.Articles](st, KeyArticles); err != nil {
		return fmt.Errorf("stages: collect result: %w", err)
	}
	if res.SearchParams, err = state.Value[serp.Params](st, KeySearchParameters); err != nil {
		return fmt.Errorf("stages: collect result: %w", err)
	}
	if res.Skipped, err = state.Value[[]news.SkippedHit](st, KeySkippedHits); err != nil {
		return fmt.Errorf("stages: collect result: %w", err)
	}
	return nil
}
