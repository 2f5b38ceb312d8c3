package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/FranksOps/slant/internal/state"
	"github.com/google/go-cmp/cmp"
)

func setStage(name string, reads []state.Key, key state.Key, fn func(state.State) (any, error)) Stage {
	return Func(name, reads, []state.Key{key}, func(ctx context.Context, s state.State) (state.State, error) {
		v, err := fn(s)
		if err != nil {
			return s, err
		}
		return s.Update(state.Changes{key: v}), nil
	})
}

func TestRunner_Run(t *testing.T) {
	var order []string
	double := setStage("double", []state.Key{"n"}, "doubled", func(s state.State) (any, error) {
		order = append(order, "double")
		n, err := state.Value[int](s, "n")
		return n * 2, err
	})
	label := setStage("label", []state.Key{"doubled"}, "label", func(s state.State) (any, error) {
		order = append(order, "label")
		n, err := state.Value[int](s, "doubled")
		if err != nil {
			return nil, err
		}
		if n == 42 {
			return "answer", nil
		}
		return "other", nil
	})

	r := New(nil, Options{StrictContracts: true}, double, label)
	out, err := r.Run(context.Background(), state.New().Update(state.Changes{"n": 21}))
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	got, err := state.Value[string](out, "label")
	if err != nil || got != "answer" {
		t.Errorf("expected label=answer, got %q (%v)", got, err)
	}
	if diff := cmp.Diff([]string{"double", "label"}, order); diff != "" {
		t.Errorf("stage order mismatch (-want +got):\n%s", diff)
	}
}

func TestRunner_WiringFailsBeforeAnyStage(t *testing.T) {
	ran := false
	first := setStage("first", nil, "a", func(s state.State) (any, error) {
		ran = true
		return 1, nil
	})
	second := setStage("second", []state.Key{"never_written"}, "b", func(s state.State) (any, error) {
		return 2, nil
	})

	_, err := New(nil, Options{}, first, second).Run(context.Background(), state.New())

	var missing *state.MissingKeyError
	if !errors.As(err, &missing) || missing.Key != "never_written" {
		t.Fatalf("expected MissingKeyError for never_written, got %v", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "second" {
		t.Errorf("expected StageError naming second, got %v", err)
	}
	if ran {
		t.Errorf("expected no stage to run on a wiring error")
	}
}

func TestRunner_StageErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	failing := setStage("failing", nil, "x", func(s state.State) (any, error) {
		return nil, boom
	})

	_, err := New(nil, Options{}, failing).Run(context.Background(), state.New())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "failing") {
		t.Errorf("expected stage name in error, got %v", err)
	}
}

func TestRunner_DerivedStageIsRefreshed(t *testing.T) {
	seed := setStage("seed", nil, "items", func(s state.State) (any, error) {
		return []int{1, 2}, nil
	})
	count := Derived(setStage("count", []state.Key{"items"}, "count", func(s state.State) (any, error) {
		items, err := state.Value[[]int](s, "items")
		return len(items), err
	}))
	grow := Func("grow", []state.Key{"items"}, []state.Key{"items"}, func(ctx context.Context, s state.State) (state.State, error) {
		items, err := state.Value[[]int](s, "items")
		if err != nil {
			return s, err
		}
		grown := append(append([]int(nil), items...), 3)
		return s.Update(state.Changes{"items": grown}), nil
	})

	out, err := New(nil, Options{StrictContracts: true}, seed, count, grow).Run(context.Background(), state.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := state.Value[int](out, "count")
	if err != nil || n != 3 {
		t.Errorf("expected derived count refreshed to 3, got %d (%v)", n, err)
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	stage := setStage("noop", nil, "x", func(s state.State) (any, error) { return 1, nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, Options{}, stage).Run(ctx, state.New())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunner_NoStages(t *testing.T) {
	if _, err := New(nil, Options{}).Run(context.Background(), state.New()); err == nil {
		t.Fatal("expected error for empty pipeline")
	}
}
