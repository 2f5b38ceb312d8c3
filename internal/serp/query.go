package serp

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned by BuildParams for a blank question.
var ErrEmptyQuery = errors.New("serp: query is empty")

// Defaults fills the engine settings around a question.
type Defaults struct {
	Engine     string
	ResultType string
	Num        int
	Country    string
	Language   string
}

// DefaultSettings match a Google News search for ten US English results.
var DefaultSettings = Defaults{
	Engine:     "google",
	ResultType: "nws",
	Num:        10,
	Country:    "us",
	Language:   "en",
}

// BuildParams combines the question with an OR'd site restriction over sites,
// e.g. `tariffs (site:foxnews.com OR site:npr.org)`.
func BuildParams(question string, sites []string, d Defaults) (Params, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Params{}, ErrEmptyQuery
	}

	if d.Engine == "" {
		d.Engine = DefaultSettings.Engine
	}
	if d.ResultType == "" {
		d.ResultType = DefaultSettings.ResultType
	}
	if d.Num <= 0 {
		d.Num = DefaultSettings.Num
	}
	if d.Country == "" {
		d.Country = DefaultSettings.Country
	}
	if d.Language == "" {
		d.Language = DefaultSettings.Language
	}

	query := question
	if len(sites) > 0 {
		restrictions := make([]string, len(sites))
		for i, site := range sites {
			restrictions[i] = "site:" + site
		}
		query = question + " (" + strings.Join(restrictions, " OR ") + ")"
	}

	return Params{
		Query:      query,
		Engine:     d.Engine,
		ResultType: d.ResultType,
		Num:        d.Num,
		Country:    d.Country,
		Language:   d.Language,
		Sites:      append([]string(nil), sites...),
	}, nil
}
