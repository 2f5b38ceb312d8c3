package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FranksOps/slant/internal/state"
)

// ContractError reports a stage that read or wrote outside its declaration.
type ContractError struct {
	Stage string
	// UndeclaredRead is set when the stage read a key not in Reads.
	UndeclaredRead state.Key
	// UndeclaredWrites lists keys that changed but are not in Writes.
	UndeclaredWrites []state.Key
	// MissingWrites lists declared writes absent from the result.
	MissingWrites []state.Key
}

func (e *ContractError) Error() string {
	var parts []string
	if e.UndeclaredRead != "" {
		parts = append(parts, fmt.Sprintf("read undeclared key %q", e.UndeclaredRead))
	}
	if len(e.UndeclaredWrites) > 0 {
		parts = append(parts, fmt.Sprintf("wrote undeclared keys %v", e.UndeclaredWrites))
	}
	if len(e.MissingWrites) > 0 {
		parts = append(parts, fmt.Sprintf("did not write declared keys %v", e.MissingWrites))
	}
	return fmt.Sprintf("pipeline: stage %s violated its contract: %s", e.Stage, strings.Join(parts, "; "))
}

// Verify checks that after differs from before only in the stage's declared
// writes, and that every declared write is present.
func Verify(s Stage, before, after state.State) error {
	declared := make(map[state.Key]struct{}, len(s.Writes()))
	for _, k := range s.Writes() {
		declared[k] = struct{}{}
	}

	cerr := &ContractError{Stage: s.Name()}
	for _, k := range state.Diff(before, after) {
		if _, ok := declared[k]; !ok {
			cerr.UndeclaredWrites = append(cerr.UndeclaredWrites, k)
		}
	}
	for _, k := range s.Writes() {
		if !after.Has(k) {
			cerr.MissingWrites = append(cerr.MissingWrites, k)
		}
	}

	if len(cerr.UndeclaredWrites) > 0 || len(cerr.MissingWrites) > 0 {
		return cerr
	}
	return nil
}

type guardedStage struct {
	Stage
}

// Guarded wraps s so that it only sees its declared reads and its result is
// checked with Verify.
func Guarded(s Stage) Stage {
	if _, ok := s.(guardedStage); ok {
		return s
	}
	return guardedStage{Stage: s}
}

func (g guardedStage) Run(ctx context.Context, before state.State) (state.State, error) {
	after, err := g.Stage.Run(ctx, before.Restrict(g.Reads()))
	if err != nil {
		var undeclared *state.UndeclaredReadError
		if errors.As(err, &undeclared) {
			return before, &ContractError{Stage: g.Name(), UndeclaredRead: undeclared.Key}
		}
		return before, err
	}
	after = after.Unrestricted()
	if err := Verify(g.Stage, before, after); err != nil {
		return before, err
	}
	return after, nil
}

// CheckWiring walks the stages in order and fails with a MissingKeyError if a
// stage reads a key that neither the initial state nor an upstream stage
// provides.
func CheckWiring(stages []Stage, initial state.State) error {
	available := make(map[state.Key]struct{})
	for _, k := range initial.Keys() {
		available[k] = struct{}{}
	}
	for _, s := range stages {
		for _, k := range s.Reads() {
			if _, ok := available[k]; !ok {
				return &StageError{Stage: s.Name(), Err: &state.MissingKeyError{Key: k}}
			}
		}
		for _, k := range s.Writes() {
			available[k] = struct{}{}
		}
	}
	return nil
}
