package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FranksOps/slant/internal/news"
	"github.com/FranksOps/slant/internal/pipeline"
	"github.com/FranksOps/slant/internal/serp"
	"github.com/FranksOps/slant/internal/state"
)

// SearchParameters derives the engine query from the user's question.
type SearchParameters struct {
	Sites    []string
	Defaults serp.Defaults
}

var _ pipeline.Stage = (*SearchParameters)(nil)

func (s *SearchParameters) Name() string        { return "set_search_parameters" }
func (s *SearchParameters) Reads() []state.Key  { return keys(KeyOriginalUserInput) }
func (s *SearchParameters) Writes() []state.Key { return keys(KeySearchParameters) }

func (s *SearchParameters) Run(_ context.Context, st state.State) (state.State, error) {
	question, err := state.Value[string](st, KeyOriginalUserInput)
	if err != nil {
		return st, err
	}
	params, err := serp.BuildParams(question, s.Sites, s.Defaults)
	if err != nil {
		return st, err
	}
	return st.Update(state.Changes{KeySearchParameters: params}), nil
}

// Search runs the query and turns hits into positioned, bias-labelled
// articles.
type Search struct {
	Provider   serp.Provider
	Publishers news.Publishers
	Policy     news.UnknownPublisherPolicy
	Logger     *slog.Logger
}

var _ pipeline.Stage = (*Search)(nil)

func (s *Search) Name() string       { return "run_search" }
func (s *Search) Reads() []state.Key { return keys(KeySearchParameters) }
func (s *Search) Writes() []state.Key {
	return keys(KeyArticles, KeyHitCount, KeySkippedHits)
}

func (s *Search) Run(ctx context.Context, st state.State) (state.State, error) {
	params, err := state.Value[serp.Params](st, KeySearchParameters)
	if err != nil {
		return st, err
	}

	hits, err := s.Provider.Search(ctx, params)
	if err != nil {
		return st, err
	}

	logger := loggerOr(s.Logger)
	items := make([]news.Article, 0, len(hits))
	skipped := []news.SkippedHit{}
	for i, hit := range hits {
		position := i + 1
		source := string(hit.Source)

		publisher, ok := s.Publishers.Lookup(source)
		if !ok {
			if s.Policy == news.PolicyFail {
				return st, &news.UnknownPublisherError{Source: source, Position: position, Link: hit.Link}
			}
			logger.Warn("skipping hit from unknown publisher", "position", position, "source", source, "link", hit.Link)
			skipped = append(skipped, news.SkippedHit{
				Position: position,
				Source:   source,
				Link:     hit.Link,
				Reason:   "unknown publisher",
			})
			continue
		}

		items = append(items, news.Article{
			Position:      position,
			Source:        publisher.Name,
			Link:          hit.Link,
			Title:         hit.Title,
			Snippet:       hit.Snippet,
			Date:          hit.Date,
			PoliticalBias: publisher.Bias,
		})
	}

	articles, err := news.NewArticles(items...)
	if err != nil {
		return st, err
	}
	if err := articles.Validate(len(hits)); err != nil {
		return st, err
	}

	logger.Info("search returned", "hits", len(hits), "articles", articles.Len(), "skipped", len(skipped))
	return st.Update(state.Changes{
		KeyArticles:    articles,
		KeyHitCount:    len(hits),
		KeySkippedHits: skipped,
	}), nil
}

// GroupBySource partitions articles by publisher. It is a derived stage: the
// runner refreshes it whenever a later stage rewrites the articles.
func GroupBySource() pipeline.Stage {
	return pipeline.Derived(pipeline.Func("group_by_source", keys(KeyArticles), keys(KeyGroupedBySource),
		func(_ context.Context, st state.State) (state.State, error) {
			articles, err := state.Value[news.Articles](st, KeyArticles)
			if err != nil {
				return st, err
			}
			return st.Update(state.Changes{KeyGroupedBySource: news.GroupBySource(articles)}), nil
		}))
}

// validatePositions re-checks the article identity invariant after a stage
// rewrote the collection.
func validatePositions(st state.State, articles news.Articles) error {
	n, err := state.Value[int](st, KeyHitCount)
	if err != nil {
		return err
	}
	if err := articles.Validate(n); err != nil {
		return fmt.Errorf("stages: %w", err)
	}
	return nil
}
