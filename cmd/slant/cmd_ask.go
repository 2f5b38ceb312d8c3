package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/slant/internal/logging"
	"github.com/FranksOps/slant/internal/metrics"
	"github.com/FranksOps/slant/internal/report"
	"github.com/FranksOps/slant/internal/stages"
	"github.com/FranksOps/slant/internal/storage"
)

type askFlags struct {
	format      string
	concurrency int
	summarize   bool
	noHistory   bool
}

func (a *app) askCmd() *cobra.Command {
	var flags askFlags

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Search, score and compare outlet coverage of a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, strings.Join(args, " "), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.format, "format", "f", "text", "Output format: text, json or html")
	f.IntVar(&flags.concurrency, "concurrency", -1, "Override pipeline.concurrency")
	f.BoolVar(&flags.summarize, "summarize", false, "Summarize each article before scoring")
	f.BoolVar(&flags.noHistory, "no-history", false, "Do not record this run in the history backend")
	return cmd
}

func (a *app) runAsk(cmd *cobra.Command, question string, flags askFlags) error {
	switch flags.format {
	case "text", "json", "html":
	default:
		return fmt.Errorf("unknown format %q (want text, json or html)", flags.format)
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if flags.concurrency >= 0 {
		cfg.Pipeline.Concurrency = flags.concurrency
	}
	if flags.summarize {
		cfg.Pipeline.Summarize = true
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	closeLog, err := initLogging(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()
	logger := logging.New("cli")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Port > 0 {
		srv := metrics.Start(cfg.Metrics.Port)
		logger.Info("metrics server listening", "port", cfg.Metrics.Port)
		defer func() { _ = srv.Stop(context.Background()) }()
	}

	var history storage.Backend
	if !flags.noHistory {
		if history, err = openHistory(ctx, cfg.History); err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		if history != nil {
			defer history.Close()
		}
	}

	deps, cleanup, err := a.newDeps(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer cleanup()

	analyzer, err := stages.New(deps, cfg.StageOptions(), logging.New("stages"))
	if err != nil {
		return err
	}

	started := time.Now()
	res, runErr := analyzer.Analyze(ctx, question)
	if history != nil {
		record(ctx, history, logger, question, started, res, runErr)
	}
	if runErr != nil {
		return runErr
	}

	return report.Write(cmd.OutOrStdout(), flags.format, report.Summarize(res))
}

// record saves the run outcome. History failures are logged, never returned.
func record(ctx context.Context, b storage.Backend, logger *slog.Logger, question string, started time.Time, res *stages.Result, runErr error) {
	var rec *storage.RunRecord
	if runErr != nil {
		if errors.Is(runErr, stages.ErrEmptyQuestion) {
			return
		}
		rec = storage.FromError(question, started, runErr)
	} else {
		var err error
		if rec, err = storage.FromResult(res); err != nil {
			logger.Warn("failed to encode run for history", "err", err)
			return
		}
	}

	// A cancelled run is still recorded.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := b.Save(saveCtx, rec); err != nil {
		logger.Warn("failed to record run", "run_id", rec.ID, "err", err)
	}
}
