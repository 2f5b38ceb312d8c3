package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/FranksOps/slant/internal/state"
	"github.com/google/go-cmp/cmp"
)

func TestGuarded_UndeclaredRead(t *testing.T) {
	sneaky := Func("sneaky", []state.Key{"a"}, []state.Key{"b"}, func(ctx context.Context, s state.State) (state.State, error) {
		if _, err := s.Get("secret"); err != nil {
			return s, err
		}
		return s.Update(state.Changes{"b": 1}), nil
	})

	in := state.New().Update(state.Changes{"a": 1, "secret": "x"})
	_, err := Guarded(sneaky).Run(context.Background(), in)

	var cerr *ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ContractError, got %v", err)
	}
	if cerr.UndeclaredRead != "secret" {
		t.Errorf("expected undeclared read of secret, got %q", cerr.UndeclaredRead)
	}
}

func TestGuarded_UndeclaredWrite(t *testing.T) {
	leaky := Func("leaky", nil, []state.Key{"b"}, func(ctx context.Context, s state.State) (state.State, error) {
		return s.Update(state.Changes{"b": 1, "c": 2}), nil
	})

	_, err := Guarded(leaky).Run(context.Background(), state.New())

	var cerr *ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ContractError, got %v", err)
	}
	if diff := cmp.Diff([]state.Key{"c"}, cerr.UndeclaredWrites); diff != "" {
		t.Errorf("undeclared writes mismatch (-want +got):\n%s", diff)
	}
}

func TestGuarded_MissingWrite(t *testing.T) {
	lazy := Func("lazy", nil, []state.Key{"b"}, func(ctx context.Context, s state.State) (state.State, error) {
		return s, nil
	})

	_, err := Guarded(lazy).Run(context.Background(), state.New())

	var cerr *ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ContractError, got %v", err)
	}
	if diff := cmp.Diff([]state.Key{"b"}, cerr.MissingWrites); diff != "" {
		t.Errorf("missing writes mismatch (-want +got):\n%s", diff)
	}
}

func TestVerify_RewriteWithSameValueIsAllowed(t *testing.T) {
	s := Func("same", []state.Key{"a"}, []state.Key{"a"}, nil)
	before := state.New().Update(state.Changes{"a": 1, "other": "x"})
	after := before.Update(state.Changes{"a": 1})

	if err := Verify(s, before, after); err != nil {
		t.Errorf("unexpected contract error: %v", err)
	}
}

func TestCheckWiring(t *testing.T) {
	a := Func("a", []state.Key{"input"}, []state.Key{"mid"}, nil)
	b := Func("b", []state.Key{"mid"}, []state.Key{"out"}, nil)

	initial := state.New().Update(state.Changes{"input": "q"})
	if err := CheckWiring([]Stage{a, b}, initial); err != nil {
		t.Errorf("unexpected wiring error: %v", err)
	}

	if err := CheckWiring([]Stage{b, a}, initial); err == nil {
		t.Errorf("expected wiring error when mid is read before it is written")
	}
}
