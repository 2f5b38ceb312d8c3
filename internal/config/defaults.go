package config

import (
	"github.com/spf13/viper"
)

// Extraction providers.
const (
	ProviderFirecrawl = "firecrawl"
	ProviderHTML      = "html"
)

// History backends.
const (
	HistoryNone     = "none"
	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"
	HistoryJSON     = "json"
	HistoryCSV      = "csv"
)

// apiKeyEnv maps credential keys to the conventional variables the upstream
// services document.
var apiKeyEnv = map[string]string{
	"search.api_key":     "SERP_API_KEY",
	"extraction.api_key": "FIRECRAWL_API_KEY",
	"generation.api_key": "GROQ_API_KEY",
}

var foxExcludeTags = []string{
	"video", "div.sidebar", "div.contain", "comment", "related", "recommendation",
	"advertisement", "social", "share", "newsletter", "subscription",
	"author-bio", "read-more", "popular", "trending", "strong", "div.pdf-container",
	"div.article-meta", "footer", "div.image-ct", "div.ad-container",
}

var nprExcludeTags = []string{
	"div.tags", "div.callout-end-of-story-piano-wrap", "aside", "footer", "div.bucketblock",
	"picture", "div.primaryaudio", "div.credit-caption",
}

// Default returns the built-in configuration: Fox News and NPR searched
// through SerpAPI, extracted with Firecrawl and scored with Groq.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL:    "https://serpapi.com/search.json",
			TimeoutSec: 30,
			Engine:     "google",
			ResultType: "nws",
			Num:        10,
			Country:    "us",
			Language:   "en",
		},
		Outlets: []OutletConfig{
			{Name: "Fox News", Domain: "foxnews.com", Bias: "Right", ExcludeTags: append([]string(nil), foxExcludeTags...)},
			{Name: "NPR", Domain: "npr.org", Bias: "Center Left", ExcludeTags: append([]string(nil), nprExcludeTags...)},
		},
		IncludeTags: []string{"h1", "p"},
		Extraction: ExtractionConfig{
			Provider:      ProviderFirecrawl,
			BaseURL:       "https://api.firecrawl.dev",
			TimeoutSec:    60,
			Fingerprint:   "chrome",
			UAStrategy:    "sequential",
			RespectRobots: true,
		},
		Generation: GenerationConfig{
			BaseURL:    "https://api.groq.com",
			Model:      "llama-3.1-8b-instant",
			TimeoutSec: 60,
		},
		Pipeline: PipelineConfig{
			Concurrency:      1,
			UnknownPublisher: "skip",
			ContentBudget:    12000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		History: HistoryConfig{
			Backend: HistoryNone,
		},
	}
}

// setDefaults registers every scalar default with v so that environment
// overrides are honoured by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", d.Search.BaseURL)
	v.SetDefault("search.timeout_sec", d.Search.TimeoutSec)
	v.SetDefault("search.engine", d.Search.Engine)
	v.SetDefault("search.result_type", d.Search.ResultType)
	v.SetDefault("search.num", d.Search.Num)
	v.SetDefault("search.country", d.Search.Country)
	v.SetDefault("search.language", d.Search.Language)

	v.SetDefault("extraction.provider", d.Extraction.Provider)
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.base_url", d.Extraction.BaseURL)
	v.SetDefault("extraction.timeout_sec", d.Extraction.TimeoutSec)
	v.SetDefault("extraction.rps", d.Extraction.RPS)
	v.SetDefault("extraction.fingerprint", d.Extraction.Fingerprint)
	v.SetDefault("extraction.ua_strategy", d.Extraction.UAStrategy)
	v.SetDefault("extraction.proxy_file", "")
	v.SetDefault("extraction.respect_robots", d.Extraction.RespectRobots)
	v.SetDefault("extraction.jitter", d.Extraction.Jitter)

	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.base_url", d.Generation.BaseURL)
	v.SetDefault("generation.model", d.Generation.Model)
	v.SetDefault("generation.timeout_sec", d.Generation.TimeoutSec)
	v.SetDefault("generation.rps", d.Generation.RPS)

	v.SetDefault("pipeline.concurrency", d.Pipeline.Concurrency)
	v.SetDefault("pipeline.summarize", d.Pipeline.Summarize)
	v.SetDefault("pipeline.unknown_publisher", d.Pipeline.UnknownPublisher)
	v.SetDefault("pipeline.strict_contracts", d.Pipeline.StrictContracts)
	v.SetDefault("pipeline.content_budget", d.Pipeline.ContentBudget)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", "")

	v.SetDefault("metrics.port", d.Metrics.Port)

	v.SetDefault("history.backend", d.History.Backend)
	v.SetDefault("history.dsn", "")
}
