package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/FranksOps/slant/internal/config"
	"github.com/FranksOps/slant/internal/extract"
	"github.com/FranksOps/slant/internal/extract/firecrawl"
	"github.com/FranksOps/slant/internal/fingerprint"
	"github.com/FranksOps/slant/internal/logging"
	"github.com/FranksOps/slant/internal/scraper"
	"github.com/FranksOps/slant/internal/serp"
	"github.com/FranksOps/slant/internal/stages"
	"github.com/FranksOps/slant/internal/storage"
	"github.com/FranksOps/slant/internal/storage/csvbackend"
	"github.com/FranksOps/slant/internal/storage/jsonbackend"
	"github.com/FranksOps/slant/internal/storage/postgres"
	"github.com/FranksOps/slant/internal/storage/sqlite"
	"github.com/FranksOps/slant/internal/textgen/groq"
	"github.com/FranksOps/slant/pkg/proxy"
	"github.com/FranksOps/slant/pkg/ratelimit"
	"github.com/FranksOps/slant/pkg/useragent"
)

// depsFactory builds the external collaborators of a run. The returned func
// releases them.
type depsFactory func(cfg *config.Config, logger *slog.Logger) (stages.Deps, func(), error)

// loadConfig reads the config file and applies command-line overrides.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return nil, err
	}
	if a.flags.logLevel != "" {
		cfg.Logging.Level = a.flags.logLevel
	}
	if a.flags.logFormat != "" {
		cfg.Logging.Format = a.flags.logFormat
	}
	if a.flags.metricsPort >= 0 {
		cfg.Metrics.Port = a.flags.metricsPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// initLogging installs the default logger. Output goes to stderr and, when
// configured, to a log file as well.
func initLogging(cfg config.LoggingConfig, stderr io.Writer) (func(), error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	writers := []io.Writer{stderr}
	closer := func() {}
	if cfg.File != "" {
		f, err := logging.OpenFile(cfg.File)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
		closer = func() { _ = f.Close() }
	}

	logging.Init(level, cfg.Format, writers...)
	return closer, nil
}

func buildDeps(cfg *config.Config, logger *slog.Logger) (stages.Deps, func(), error) {
	search, err := serp.NewSerpAPI(serp.SerpAPIConfig{
		APIKey:  cfg.Search.APIKey,
		BaseURL: cfg.Search.BaseURL,
		Timeout: cfg.SearchTimeout(),
	}, logger.With("component", "serp"))
	if err != nil {
		return stages.Deps{}, nil, err
	}

	extractor, closeExtractor, err := buildExtractor(cfg, logger)
	if err != nil {
		return stages.Deps{}, nil, err
	}

	gen, err := groq.New(groq.Config{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Timeout: cfg.GenerationTimeout(),
		RPS:     cfg.Generation.RPS,
	}, logger.With("component", "groq"))
	if err != nil {
		closeExtractor()
		return stages.Deps{}, nil, err
	}

	cleanup := func() {
		gen.Close()
		closeExtractor()
	}
	return stages.Deps{Search: search, Extractor: extractor, Generator: gen}, cleanup, nil
}

func buildExtractor(cfg *config.Config, logger *slog.Logger) (extract.Extractor, func(), error) {
	ec := cfg.Extraction
	switch ec.Provider {
	case config.ProviderHTML:
		profile, err := fingerprint.ParseProfile(ec.Fingerprint)
		if err != nil {
			return nil, nil, err
		}
		strategy, err := useragent.ParseStrategy(ec.UAStrategy)
		if err != nil {
			return nil, nil, err
		}

		fc := scraper.FetchConfig{
			Timeout:      cfg.ExtractionTimeout(),
			MaxRedirects: 5,
			UseCookieJar: true,
			UAPool:       useragent.NewPool(ec.UserAgents, strategy),
			Fingerprint:  profile,
		}

		pool := proxy.NewPool(proxy.Config{})
		if err := pool.Add(ec.Proxies...); err != nil {
			return nil, nil, err
		}
		if ec.ProxyFile != "" {
			if err := pool.LoadFile(ec.ProxyFile); err != nil {
				return nil, nil, err
			}
		}
		if pool.Len() > 0 {
			fc.ProxyPool = pool
		}

		var hosts *ratelimit.HostLimiter
		if ec.RPS > 0 {
			hosts = ratelimit.NewHostLimiter(ec.RPS, ec.Jitter)
			fc.Hosts = hosts
		}

		fetcher, err := scraper.NewFetcher(fc)
		if err != nil {
			hosts.Stop()
			return nil, nil, err
		}
		h := scraper.NewHTMLExtractor(scraper.HTMLConfig{RespectRobots: ec.RespectRobots}, fetcher, logger.With("component", "scraper"))
		return h, hosts.Stop, nil

	default:
		fc, err := firecrawl.New(firecrawl.Config{
			APIKey:  ec.APIKey,
			BaseURL: ec.BaseURL,
			Timeout: cfg.ExtractionTimeout(),
			RPS:     ec.RPS,
		}, logger.With("component", "firecrawl"))
		if err != nil {
			return nil, nil, err
		}
		return fc, fc.Close, nil
	}
}

// openHistory returns nil when run history is disabled.
func openHistory(ctx context.Context, cfg config.HistoryConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case config.HistorySQLite:
		return sqlite.New(cfg.DSN)
	case config.HistoryPostgres:
		return postgres.New(ctx, cfg.DSN)
	case config.HistoryJSON:
		return jsonbackend.New(cfg.DSN)
	case config.HistoryCSV:
		return csvbackend.New(cfg.DSN)
	}
	return nil, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
