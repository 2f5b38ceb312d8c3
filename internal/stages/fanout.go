package stages

import (
	"context"

	"github.com/FranksOps/slant/internal/news"
	"golang.org/x/sync/errgroup"
)

// articleFunc processes one article and returns its updated copy. A non-nil
// error aborts the whole stage, so per-article failures must be recorded on
// the returned article instead.
type articleFunc func(ctx context.Context, a news.Article) (news.Article, error)

// forEachArticle applies fn to the articles selected by want. With
// concurrency <= 1 it walks them in position order; otherwise it runs up to
// concurrency workers. Each worker owns exactly one result slot and the
// collection is rebuilt in position order once all of them finish.
func forEachArticle(ctx context.Context, articles news.Articles, concurrency int, want func(news.Article) bool, fn articleFunc) (news.Articles, error) {
	var todo []news.Article
	for _, a := range articles.All() {
		if want(a) {
			todo = append(todo, a)
		}
	}
	if len(todo) == 0 {
		return articles, nil
	}

	results := make([]news.Article, len(todo))
	apply := func(ctx context.Context, a news.Article) (news.Article, error) {
		updated, err := fn(ctx, a)
		if err != nil {
			return a, err
		}
		if updated.Position != a.Position {
			return a, &news.PositionError{Position: a.Position, Reason: "article function changed the position"}
		}
		return updated, nil
	}

	if concurrency <= 1 {
		for i, a := range todo {
			if err := ctx.Err(); err != nil {
				return articles, err
			}
			updated, err := apply(ctx, a)
			if err != nil {
				return articles, err
			}
			results[i] = updated
		}
		return merge(articles, results)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, a := range todo {
		i, a := i, a
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			updated, err := apply(gctx, a)
			if err != nil {
				return err
			}
			results[i] = updated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return articles, err
	}
	return merge(articles, results)
}

// merge writes each result back into articles at its own position.
func merge(articles news.Articles, results []news.Article) (news.Articles, error) {
	next := articles
	for _, r := range results {
		var err error
		next, err = next.Update(r.Position, func(a *news.Article) { *a = r })
		if err != nil {
			return articles, err
		}
	}
	return next, nil
}
