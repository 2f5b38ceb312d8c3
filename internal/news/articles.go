package news

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PositionError reports a broken article identity invariant.
type PositionError struct {
	Position int
	Reason   string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("news: article position %d: %s", e.Position, e.Reason)
}

// Articles is an immutable collection of articles keyed by position and kept
// in position order. Every change goes through Update, which returns a new
// collection.
type Articles struct {
	items []Article
}

// NewArticles builds a collection, rejecting non-positive or duplicate
// positions.
func NewArticles(items ...Article) (Articles, error) {
	sorted := make([]Article, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	for i, a := range sorted {
		if a.Position < 1 {
			return Articles{}, &PositionError{Position: a.Position, Reason: "must be >= 1"}
		}
		if i > 0 && sorted[i-1].Position == a.Position {
			return Articles{}, &PositionError{Position: a.Position, Reason: "duplicate"}
		}
	}
	return Articles{items: sorted}, nil
}

// Len returns the number of articles.
func (a Articles) Len() int {
	return len(a.items)
}

// All returns a copy of the articles in position order.
func (a Articles) All() []Article {
	out := make([]Article, len(a.items))
	copy(out, a.items)
	return out
}

// Positions returns the article positions in ascending order.
func (a Articles) Positions() []int {
	out := make([]int, len(a.items))
	for i, item := range a.items {
		out[i] = item.Position
	}
	return out
}

// Get returns the article at position.
func (a Articles) Get(position int) (Article, bool) {
	i, ok := a.find(position)
	if !ok {
		return Article{}, false
	}
	return a.items[i], true
}

// Update returns a new collection where the article at position has been
// passed through fn. fn may not change the position.
func (a Articles) Update(position int, fn func(*Article)) (Articles, error) {
	i, ok := a.find(position)
	if !ok {
		return a, &PositionError{Position: position, Reason: "not found"}
	}

	next := make([]Article, len(a.items))
	copy(next, a.items)
	fn(&next[i])
	if next[i].Position != position {
		return a, &PositionError{Position: position, Reason: "update changed the position"}
	}
	return Articles{items: next}, nil
}

// Validate checks that positions are unique and within 1..n, where n is the
// number of hits the search returned.
func (a Articles) Validate(n int) error {
	for i, item := range a.items {
		if item.Position < 1 || item.Position > n {
			return &PositionError{Position: item.Position, Reason: fmt.Sprintf("outside 1..%d", n)}
		}
		if i > 0 && a.items[i-1].Position >= item.Position {
			return &PositionError{Position: item.Position, Reason: "duplicate or out of order"}
		}
	}
	return nil
}

func (a Articles) find(position int) (int, bool) {
	i := sort.Search(len(a.items), func(i int) bool { return a.items[i].Position >= position })
	if i < len(a.items) && a.items[i].Position == position {
		return i, true
	}
	return 0, false
}

// MarshalJSON encodes the collection as a position-ordered array.
func (a Articles) MarshalJSON() ([]byte, error) {
	if a.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.items)
}

// UnmarshalJSON decodes an array of articles, enforcing unique positions.
func (a *Articles) UnmarshalJSON(data []byte) error {
	var items []Article
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	parsed, err := NewArticles(items...)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
