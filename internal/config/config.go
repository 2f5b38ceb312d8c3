// Package config loads slant's settings from a YAML file, SLANT_* environment
// variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoOutlets              = errors.New("at least one outlet is required")
	ErrOutletMissingName      = errors.New("outlet name is required")
	ErrOutletMissingDomain    = errors.New("outlet domain is required")
	ErrDuplicateOutlet        = errors.New("outlet names must be unique")
	ErrNoIncludeTags          = errors.New("include_tags must not be empty")
	ErrInvalidNum             = errors.New("search.num must be between 1 and 100")
	ErrInvalidTimeout         = errors.New("timeout_sec must be at least 1")
	ErrInvalidRPS             = errors.New("rps must be non-negative")
	ErrInvalidProvider        = errors.New("extraction.provider must be 'firecrawl' or 'html'")
	ErrInvalidConcurrency     = errors.New("pipeline.concurrency must be non-negative")
	ErrInvalidContentBudget   = errors.New("pipeline.content_budget must be non-negative")
	ErrInvalidPolicy          = errors.New("pipeline.unknown_publisher must be 'skip' or 'fail'")
	ErrInvalidLogLevel        = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat       = errors.New("logging.format must be 'text' or 'json'")
	ErrInvalidHistoryBackend  = errors.New("history.backend must be one of: none, sqlite, postgres, json, csv")
	ErrMissingHistoryLocation = errors.New("history.dsn is required for the configured backend")
	ErrMissingSearchKey       = errors.New("search.api_key (or SERP_API_KEY) is required")
	ErrMissingExtractionKey   = errors.New("extraction.api_key (or FIRECRAWL_API_KEY) is required for the firecrawl provider")
	ErrMissingGenerationKey   = errors.New("generation.api_key (or GROQ_API_KEY) is required")
)

// Config is the complete slant configuration.
type Config struct {
	Search      SearchConfig     `mapstructure:"search" yaml:"search"`
	Outlets     []OutletConfig   `mapstructure:"outlets" yaml:"outlets"`
	IncludeTags []string         `mapstructure:"include_tags" yaml:"include_tags"`
	Extraction  ExtractionConfig `mapstructure:"extraction" yaml:"extraction"`
	Generation  GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Pipeline    PipelineConfig   `mapstructure:"pipeline" yaml:"pipeline"`
	Logging     LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics     MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	History     HistoryConfig    `mapstructure:"history" yaml:"history"`
}

// SearchConfig configures the SerpAPI provider and query shape.
type SearchConfig struct {
	APIKey     string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	Engine     string `mapstructure:"engine" yaml:"engine"`
	ResultType string `mapstructure:"result_type" yaml:"result_type"`
	Num        int    `mapstructure:"num" yaml:"num"`
	Country    string `mapstructure:"country" yaml:"country"`
	Language   string `mapstructure:"language" yaml:"language"`
}

// OutletConfig is one allow-listed publisher.
type OutletConfig struct {
	Name        string   `mapstructure:"name" yaml:"name"`
	Domain      string   `mapstructure:"domain" yaml:"domain"`
	Bias        string   `mapstructure:"bias" yaml:"bias"`
	ExcludeTags []string `mapstructure:"exclude_tags" yaml:"exclude_tags"`
}

// ExtractionConfig selects and configures the article extractor.
type ExtractionConfig struct {
	Provider   string  `mapstructure:"provider" yaml:"provider"`
	APIKey     string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL    string  `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSec int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	RPS        float64 `mapstructure:"rps" yaml:"rps"`

	// Settings for the html provider.
	Fingerprint   string   `mapstructure:"fingerprint" yaml:"fingerprint"`
	UserAgents    []string `mapstructure:"user_agents" yaml:"user_agents,omitempty"`
	UAStrategy    string   `mapstructure:"ua_strategy" yaml:"ua_strategy"`
	Proxies       []string `mapstructure:"proxies" yaml:"proxies,omitempty"`
	ProxyFile     string   `mapstructure:"proxy_file" yaml:"proxy_file,omitempty"`
	RespectRobots bool     `mapstructure:"respect_robots" yaml:"respect_robots"`
	Jitter        float64  `mapstructure:"jitter" yaml:"jitter"`
}

// GenerationConfig configures the text-generation client.
type GenerationConfig struct {
	APIKey     string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL    string  `mapstructure:"base_url" yaml:"base_url"`
	Model      string  `mapstructure:"model" yaml:"model"`
	TimeoutSec int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	RPS        float64 `mapstructure:"rps" yaml:"rps"`
}

// PipelineConfig tunes the stage behaviour.
type PipelineConfig struct {
	Concurrency      int    `mapstructure:"concurrency" yaml:"concurrency"`
	Summarize        bool   `mapstructure:"summarize" yaml:"summarize"`
	UnknownPublisher string `mapstructure:"unknown_publisher" yaml:"unknown_publisher"`
	StrictContracts  bool   `mapstructure:"strict_contracts" yaml:"strict_contracts"`
	ContentBudget    int    `mapstructure:"content_budget" yaml:"content_budget"`
}

// LoggingConfig defines logging behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// File, when set, receives a copy of every log line.
	File string `mapstructure:"file" yaml:"file,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint. Port 0 disables it.
type MetricsConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// HistoryConfig selects where completed runs are recorded.
type HistoryConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// DSN is a postgres connection string or a file path for the file and
	// sqlite backends.
	DSN string `mapstructure:"dsn" yaml:"dsn,omitempty"`
}

// Load reads path (or slant.yaml from the working directory and
// ~/.config/slant when path is empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SLANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range apiKeyEnv {
		if err := v.BindEnv(key, "SLANT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("slant")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "slant"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	d := Default()
	if len(cfg.Outlets) == 0 {
		cfg.Outlets = d.Outlets
	}
	if len(cfg.IncludeTags) == 0 {
		cfg.IncludeTags = d.IncludeTags
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories. API keys are
// written only if set, so a generated file never leaks environment secrets
// that were not already in it.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks every setting that does not require credentials.
func (c *Config) Validate() error {
	if len(c.Outlets) == 0 {
		return ErrNoOutlets
	}
	seen := make(map[string]bool, len(c.Outlets))
	for _, o := range c.Outlets {
		if strings.TrimSpace(o.Name) == "" {
			return ErrOutletMissingName
		}
		if strings.TrimSpace(o.Domain) == "" {
			return fmt.Errorf("%w: %s", ErrOutletMissingDomain, o.Name)
		}
		key := strings.ToLower(strings.TrimSpace(o.Name))
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateOutlet, o.Name)
		}
		seen[key] = true
	}
	if len(c.IncludeTags) == 0 {
		return ErrNoIncludeTags
	}

	if c.Search.Num < 1 || c.Search.Num > 100 {
		return ErrInvalidNum
	}
	for name, sec := range map[string]int{
		"search":     c.Search.TimeoutSec,
		"extraction": c.Extraction.TimeoutSec,
		"generation": c.Generation.TimeoutSec,
	} {
		if sec < 1 {
			return fmt.Errorf("%w: %s", ErrInvalidTimeout, name)
		}
	}
	if c.Extraction.RPS < 0 || c.Generation.RPS < 0 {
		return ErrInvalidRPS
	}

	switch c.Extraction.Provider {
	case ProviderFirecrawl, ProviderHTML:
	default:
		return ErrInvalidProvider
	}

	if c.Pipeline.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.Pipeline.ContentBudget < 0 {
		return ErrInvalidContentBudget
	}
	switch c.Pipeline.UnknownPublisher {
	case "skip", "fail":
	default:
		return ErrInvalidPolicy
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	switch c.History.Backend {
	case "", HistoryNone:
	case HistorySQLite, HistoryPostgres, HistoryJSON, HistoryCSV:
		if c.History.DSN == "" {
			return ErrMissingHistoryLocation
		}
	default:
		return ErrInvalidHistoryBackend
	}
	return nil
}

// RequireCredentials checks that every API key the configured providers need
// is present.
func (c *Config) RequireCredentials() error {
	var errs []error
	if c.Search.APIKey == "" {
		errs = append(errs, ErrMissingSearchKey)
	}
	if c.Extraction.Provider == ProviderFirecrawl && c.Extraction.APIKey == "" {
		errs = append(errs, ErrMissingExtractionKey)
	}
	if c.Generation.APIKey == "" {
		errs = append(errs, ErrMissingGenerationKey)
	}
	return errors.Join(errs...)
}
