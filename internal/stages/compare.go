package stages

import (
	"context"
	"log/slog"

	"github.com/FranksOps/slant/internal/news"
	"github.com/FranksOps/slant/internal/pipeline"
	"github.com/FranksOps/slant/internal/state"
	"github.com/FranksOps/slant/internal/textgen"
)

// Compare asks for a cross-outlet comparison of the per-article scores.
type Compare struct {
	Generator textgen.Generator
	Logger    *slog.Logger
}

var _ pipeline.Stage = (*Compare)(nil)

func (c *Compare) Name() string        { return "compare_bias" }
func (c *Compare) Reads() []state.Key  { return keys(KeyQuerySubject, KeyGroupedBySource) }
func (c *Compare) Writes() []state.Key { return keys(KeyComparisonReport) }

func (c *Compare) Run(ctx context.Context, st state.State) (state.State, error) {
	subject, err := state.Value[string](st, KeyQuerySubject)
	if err != nil {
		return st, err
	}
	grouping, err := state.Value[news.Grouping](st, KeyGroupedBySource)
	if err != nil {
		return st, err
	}

	prompt, scored := compareUserPrompt(subject, grouping)
	if scored == 0 {
		loggerOr(c.Logger).Warn("no scored articles to compare", "publishers", grouping.Len())
	}

	report, err := c.Generator.Complete(ctx, textgen.Prompt{System: compareSystemPrompt, User: prompt})
	if err != nil {
		return st, err
	}
	return st.Update(state.Changes{KeyComparisonReport: report}), nil
}
