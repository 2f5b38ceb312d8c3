package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/slant/internal/metrics"
	"github.com/FranksOps/slant/internal/state"
)

// StageError wraps a run-fatal failure with the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options tunes the runner.
type Options struct {
	// StrictContracts runs every stage through Guarded.
	StrictContracts bool
}

// Runner executes a fixed sequence of stages, threading a State through them.
type Runner struct {
	stages []Stage
	opts   Options
	logger *slog.Logger
}

// New creates a Runner for the given stages in execution order.
func New(logger *slog.Logger, opts Options, stages ...Stage) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		stages: stages,
		opts:   opts,
		logger: logger,
	}
}

// Stages returns the configured stages in execution order.
func (r *Runner) Stages() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Run executes every stage in order and returns the final State. A wiring
// problem is reported before any stage runs.
func (r *Runner) Run(ctx context.Context, initial state.State) (state.State, error) {
	if len(r.stages) == 0 {
		return initial, fmt.Errorf("pipeline: no stages configured")
	}
	if err := CheckWiring(r.stages, initial); err != nil {
		return initial, err
	}

	current := initial
	var derived []Stage

	for _, s := range r.stages {
		if err := ctx.Err(); err != nil {
			return current, &StageError{Stage: s.Name(), Err: err}
		}

		next, err := r.runStage(ctx, s, current)
		if err != nil {
			return current, err
		}
		current = next

		// Refresh views built from keys this stage just rewrote.
		for _, d := range derived {
			if !overlaps(d.Reads(), s.Writes()) {
				continue
			}
			r.logger.Debug("refreshing derived stage", "stage", d.Name(), "after", s.Name())
			next, err := r.runStage(ctx, d, current)
			if err != nil {
				return current, err
			}
			current = next
		}

		if IsDerived(s) {
			derived = append(derived, s)
		}
	}

	return current, nil
}

func (r *Runner) runStage(ctx context.Context, s Stage, in state.State) (state.State, error) {
	exec := s
	if r.opts.StrictContracts {
		exec = Guarded(s)
	}

	r.logger.Debug("running stage", "stage", s.Name())
	start := time.Now()

	out, err := exec.Run(ctx, in)
	metrics.ObserveStage(s.Name(), time.Since(start), err)
	if err != nil {
		r.logger.Error("stage failed", "stage", s.Name(), "err", err)
		return in, &StageError{Stage: s.Name(), Err: err}
	}

	r.logger.Info("stage complete", "stage", s.Name(), "duration", time.Since(start))
	return out, nil
}
