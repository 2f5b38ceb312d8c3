package state

import (
	"fmt"
	"reflect"
	"sort"
)

// Key names a value held in a State.
type Key string

// Changes is the set of keys replaced by a single Update.
type Changes map[Key]any

// MissingKeyError is returned when a key was never written. It indicates a
// wiring bug: callers must not substitute defaults for pipeline keys.
type MissingKeyError struct {
	Key Key
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("state: key %q not set", e.Key)
}

// TypeError is returned by Value when the stored value has another type.
type TypeError struct {
	Key  Key
	Want string
	Got  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("state: key %q holds %s, want %s", e.Key, e.Got, e.Want)
}

// UndeclaredReadError is returned by a restricted State when a key outside
// the allowed set is read.
type UndeclaredReadError struct {
	Key Key
}

func (e *UndeclaredReadError) Error() string {
	return fmt.Sprintf("state: read of undeclared key %q", e.Key)
}

// State is an immutable snapshot of pipeline progress. Update returns a new
// State and never mutates the receiver, so earlier snapshots stay valid for
// auditing.
type State struct {
	values  map[Key]any
	allowed map[Key]struct{} // nil means unrestricted
}

// New returns an empty State.
func New() State {
	return State{values: map[Key]any{}}
}

// Update returns a copy of s with the given keys replaced.
func (s State) Update(changes Changes) State {
	next := make(map[Key]any, len(s.values)+len(changes))
	for k, v := range s.values {
		next[k] = v
	}
	for k, v := range changes {
		next[k] = v
	}
	return State{values: next}
}

// Get returns the value stored under key.
func (s State) Get(key Key) (any, error) {
	if s.allowed != nil {
		if _, ok := s.allowed[key]; !ok {
			return nil, &UndeclaredReadError{Key: key}
		}
	}
	v, ok := s.values[key]
	if !ok {
		return nil, &MissingKeyError{Key: key}
	}
	return v, nil
}

// Has reports whether key is set. On a restricted view an undeclared key is
// reported as absent.
func (s State) Has(key Key) bool {
	if s.allowed != nil {
		if _, ok := s.allowed[key]; !ok {
			return false
		}
	}
	_, ok := s.values[key]
	return ok
}

// Len returns the number of keys set.
func (s State) Len() int {
	return len(s.values)
}

// Keys returns the set keys in lexical order.
func (s State) Keys() []Key {
	keys := make([]Key, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Restrict returns a view of s that only allows reading the given keys.
// Updates on the view produce an unrestricted State.
func (s State) Restrict(keys []Key) State {
	allowed := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return State{values: s.values, allowed: allowed}
}

// Unrestricted drops any read restriction.
func (s State) Unrestricted() State {
	return State{values: s.values}
}

// Value reads key from s as a T.
func Value[T any](s State, key Key) (T, error) {
	var zero T
	v, err := s.Get(key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeError{
			Key:  key,
			Want: reflect.TypeOf((*T)(nil)).Elem().String(),
			Got:  fmt.Sprintf("%T", v),
		}
	}
	return typed, nil
}

// Diff returns the keys whose values differ between a and b, including keys
// present in only one of them, in lexical order.
func Diff(a, b State) []Key {
	var changed []Key
	for k, av := range a.values {
		bv, ok := b.values[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			changed = append(changed, k)
		}
	}
	for k := range b.values {
		if _, ok := a.values[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
	return changed
}
