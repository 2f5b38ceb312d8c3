package news

import (
	"fmt"
	"strings"
)

// Publisher is an outlet in the allow-list with its static bias label and
// the HTML selectors to drop when extracting its pages.
type Publisher struct {
	Name        string
	Domain      string
	Bias        string
	ExcludeTags []string
}

// Publishers is the static publisher → label table.
type Publishers struct {
	order  []Publisher
	byName map[string]int
}

// NewPublishers builds a table. Lookups are case-insensitive on Name.
func NewPublishers(ps ...Publisher) Publishers {
	t := Publishers{byName: make(map[string]int, len(ps))}
	for _, p := range ps {
		t.byName[normalize(p.Name)] = len(t.order)
		t.order = append(t.order, p)
	}
	return t
}

// Lookup finds the publisher whose name matches source.
func (t Publishers) Lookup(source string) (Publisher, bool) {
	i, ok := t.byName[normalize(source)]
	if !ok {
		return Publisher{}, false
	}
	return t.order[i], true
}

// Domains returns the configured outlet domains, in configuration order.
func (t Publishers) Domains() []string {
	out := make([]string, 0, len(t.order))
	for _, p := range t.order {
		if p.Domain != "" {
			out = append(out, p.Domain)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UnknownPublisherPolicy decides what happens to hits whose source is not in
// the publisher table.
type UnknownPublisherPolicy string

const (
	// PolicySkip drops the hit and records it as skipped.
	PolicySkip UnknownPublisherPolicy = "skip"
	// PolicyFail aborts the run with an UnknownPublisherError.
	PolicyFail UnknownPublisherPolicy = "fail"
)

// UnknownPublisherError is returned under PolicyFail.
type UnknownPublisherError struct {
	Source   string
	Position int
	Link     string
}

func (e *UnknownPublisherError) Error() string {
	return fmt.Sprintf("news: no bias label for publisher %q (position %d)", e.Source, e.Position)
}

// SkippedHit records a search hit dropped under PolicySkip.
type SkippedHit struct {
	Position int    `json:"position"`
	Source   string `json:"source"`
	Link     string `json:"link"`
	Reason   string `json:"reason"`
}
