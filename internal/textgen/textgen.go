// Package textgen wraps a non-deterministic text generator with a bounded
// retry-until-parseable loop for structured (JSON) answers.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FranksOps/slant/internal/metrics"
)

// MaxAttempts is the number of generations GenerateJSON makes before giving up.
const MaxAttempts = 6

// DefaultSystemPrompt is used when a Prompt leaves System empty.
const DefaultSystemPrompt = "You are a helpful news analyst."

// Prompt is a single system + user exchange.
type Prompt struct {
	System string
	User   string
}

// Generator produces free text for a prompt.
type Generator interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// errNull rejects a bare JSON null, which would otherwise decode into a zero
// value without error.
var errNull = errors.New("textgen: output is null")

// ErrUnparsable is matched by errors.Is on every *UnparsableError.
var ErrUnparsable = errors.New("textgen: output could not be parsed")

// UnparsableError reports that no attempt produced output that decoded and
// validated.
type UnparsableError struct {
	Attempts int
	LastRaw  string
	Err      error
}

func (e *UnparsableError) Error() string {
	return fmt.Sprintf("textgen: no parseable output after %d attempts: %v", e.Attempts, e.Err)
}

func (e *UnparsableError) Unwrap() error {
	return e.Err
}

func (e *UnparsableError) Is(target error) bool {
	return target == ErrUnparsable
}

type options struct {
	attempts int
	logger   *slog.Logger
}

// Option tunes GenerateJSON.
type Option func(*options)

// WithLogger logs each failed attempt at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Validator is implemented by result types that can reject a decoded value.
type Validator interface {
	Validate() error
}

// GenerateJSON asks gen for the same prompt until the answer decodes into T
// (and passes T's Validate, if any), up to MaxAttempts times. Errors from gen
// itself are returned immediately.
func GenerateJSON[T any](ctx context.Context, gen Generator, p Prompt, opts ...Option) (T, error) {
	o := options{attempts: MaxAttempts, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	var lastRaw string
	var lastErr error
	for attempt := 1; attempt <= o.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		raw, err := gen.Complete(ctx, p)
		if err != nil {
			return zero, err
		}
		lastRaw = raw

		v, err := parse[T](raw)
		if err == nil {
			metrics.RecordGeneration(attempt, true)
			return v, nil
		}
		lastErr = err
		o.logger.Debug("unparseable generation, retrying", "attempt", attempt, "error", err)
	}

	metrics.RecordGeneration(o.attempts, false)
	return zero, &UnparsableError{Attempts: o.attempts, LastRaw: lastRaw, Err: lastErr}
}

func parse[T any](raw string) (T, error) {
	var v T
	data := Clean([]byte(raw))
	if bytes.Equal(data, []byte("null")) {
		return v, errNull
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("textgen: decode: %w", err)
	}
	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return v, err
		}
	}
	return v, nil
}

// Clean strips a surrounding markdown code fence and removes every line
// break, so that replies wrapped in ```json blocks or with raw newlines
// inside string values still decode.
func Clean(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if bytes.HasPrefix(s, []byte("```")) {
		if idx := bytes.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = bytes.TrimLeft(s, "`")
		}
		s = bytes.TrimSpace(s)
		s = bytes.TrimSuffix(s, []byte("```"))
	}
	s = bytes.ReplaceAll(s, []byte("\n"), nil)
	s = bytes.ReplaceAll(s, []byte("\r"), nil)
	return bytes.TrimSpace(s)
}
