package pipeline

import (
	"context"

	"github.com/FranksOps/slant/internal/state"
)

// Stage is a single step of the pipeline. It may only read the keys listed in
// Reads and must return a State where exactly the keys in Writes changed or
// were newly set.
type Stage interface {
	Name() string
	Reads() []state.Key
	Writes() []state.Key
	Run(ctx context.Context, s state.State) (state.State, error)
}

// RunFunc is the body of a function-backed stage.
type RunFunc func(ctx context.Context, s state.State) (state.State, error)

type funcStage struct {
	name   string
	reads  []state.Key
	writes []state.Key
	fn     RunFunc
}

// Func builds a Stage from a function and its declared key sets.
func Func(name string, reads, writes []state.Key, fn RunFunc) Stage {
	return &funcStage{name: name, reads: reads, writes: writes, fn: fn}
}

func (f *funcStage) Name() string        { return f.name }
func (f *funcStage) Reads() []state.Key  { return f.reads }
func (f *funcStage) Writes() []state.Key { return f.writes }

func (f *funcStage) Run(ctx context.Context, s state.State) (state.State, error) {
	return f.fn(ctx, s)
}

type derivedStage struct {
	Stage
}

// Derived marks s as a derived view. The runner re-runs it whenever a later
// stage writes one of the keys it reads, so the view never goes stale.
func Derived(s Stage) Stage {
	return derivedStage{Stage: s}
}

// IsDerived reports whether s was wrapped with Derived.
func IsDerived(s Stage) bool {
	_, ok := s.(derivedStage)
	return ok
}

func overlaps(a, b []state.Key) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
