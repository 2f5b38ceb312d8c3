package config

import (
	"time"

	"github.com/FranksOps/slant/internal/news"
	"github.com/FranksOps/slant/internal/serp"
	"github.com/FranksOps/slant/internal/stages"
)

// Publishers converts the outlet list into the lookup table used by the
// pipeline.
func (c *Config) Publishers() news.Publishers {
	ps := make([]news.Publisher, 0, len(c.Outlets))
	for _, o := range c.Outlets {
		ps = append(ps, news.Publisher{
			Name:        o.Name,
			Domain:      o.Domain,
			Bias:        o.Bias,
			ExcludeTags: append([]string(nil), o.ExcludeTags...),
		})
	}
	return news.NewPublishers(ps...)
}

// SearchDefaults returns the engine settings wrapped around each question.
func (c *Config) SearchDefaults() serp.Defaults {
	return serp.Defaults{
		Engine:     c.Search.Engine,
		ResultType: c.Search.ResultType,
		Num:        c.Search.Num,
		Country:    c.Search.Country,
		Language:   c.Search.Language,
	}
}

// StageOptions returns the pipeline options described by c.
func (c *Config) StageOptions() stages.Options {
	return stages.Options{
		Publishers:       c.Publishers(),
		IncludeTags:      append([]string(nil), c.IncludeTags...),
		SearchDefaults:   c.SearchDefaults(),
		UnknownPublisher: news.UnknownPublisherPolicy(c.Pipeline.UnknownPublisher),
		Concurrency:      c.Pipeline.Concurrency,
		Summarize:        c.Pipeline.Summarize,
		ContentBudget:    c.Pipeline.ContentBudget,
		StrictContracts:  c.Pipeline.StrictContracts,
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// SearchTimeout is the per-request search timeout.
func (c *Config) SearchTimeout() time.Duration { return seconds(c.Search.TimeoutSec) }

// ExtractionTimeout is the per-article extraction timeout.
func (c *Config) ExtractionTimeout() time.Duration { return seconds(c.Extraction.TimeoutSec) }

// GenerationTimeout is the per-completion timeout.
func (c *Config) GenerationTimeout() time.Duration { return seconds(c.Generation.TimeoutSec) }
