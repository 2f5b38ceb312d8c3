package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Params is the engine query configuration derived from a user question.
type Params struct {
	Query      string   `json:"q"`
	Engine     string   `json:"engine"`
	ResultType string   `json:"tbm"`
	Num        int      `json:"num"`
	Country    string   `json:"gl"`
	Language   string   `json:"hl"`
	Sites      []string `json:"sites,omitempty"`
}

// Hit is a single raw search result. Position is assigned by the caller from
// the order of the returned slice, not by the provider.
type Hit struct {
	Source  Source `json:"source"`
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Source is the publisher name of a hit. Some engines return it as a plain
// string and others as an object with a name field; both decode here.
type Source string

func (s *Source) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = Source(strings.TrimSpace(name))
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("serp: source is neither string nor object: %w", err)
	}
	*s = Source(strings.TrimSpace(obj.Name))
	return nil
}

// Provider abstracts a search engine that returns news hits for the given
// parameters, in rank order.
type Provider interface {
	Search(ctx context.Context, params Params) ([]Hit, error)
}
