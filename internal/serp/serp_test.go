package serp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FranksOps/slant/pkg/httpclient"
	"github.com/google/go-cmp/cmp"
)

func TestBuildParams(t *testing.T) {
	p, err := BuildParams("  tariffs  ", []string{"foxnews.com", "npr.org"}, Defaults{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Params{
		Query:      "tariffs (site:foxnews.com OR site:npr.org)",
		Engine:     "google",
		ResultType: "nws",
		Num:        10,
		Country:    "us",
		Language:   "en",
		Sites:      []string{"foxnews.com", "npr.org"},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}

	if _, err := BuildParams("   ", nil, Defaults{}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestBuildParams_NoSites(t *testing.T) {
	p, err := BuildParams("tariffs", nil, Defaults{Num: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Query != "tariffs" || p.Num != 5 {
		t.Errorf("unexpected params: %+v", p)
	}
}

func TestSource_UnmarshalJSON(t *testing.T) {
	var hits []Hit
	data := `[{"source":"NPR","link":"a"},{"source":{"name":" Fox News "},"link":"b"}]`
	if err := json.Unmarshal([]byte(data), &hits); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if hits[0].Source != "NPR" || hits[1].Source != "Fox News" {
		t.Errorf("unexpected sources: %q %q", hits[0].Source, hits[1].Source)
	}

	var s Source
	if err := json.Unmarshal([]byte(`42`), &s); err == nil {
		t.Errorf("expected error for numeric source")
	}
}

func TestSerpAPI_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "k" || q.Get("tbm") != "nws" || q.Get("num") != "10" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("q") != "tariffs (site:npr.org)" {
			t.Errorf("unexpected q: %s", q.Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"news_results":[
			{"source":"NPR","link":"https://npr.org/1","title":"One"},
			{"source":{"name":"Fox News"},"link":"https://foxnews.com/2","title":"Two"}
		]}`))
	}))
	defer ts.Close()

	provider, err := NewSerpAPI(SerpAPIConfig{APIKey: "k", BaseURL: ts.URL}, nil)
	if err != nil {
		t.Fatalf("NewSerpAPI: %v", err)
	}

	params, _ := BuildParams("tariffs", []string{"npr.org"}, Defaults{})
	hits, err := provider.Search(context.Background(), params)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := []Hit{
		{Source: "NPR", Link: "https://npr.org/1", Title: "One"},
		{Source: "Fox News", Link: "https://foxnews.com/2", Title: "Two"},
	}
	if diff := cmp.Diff(want, hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}
}

func TestSerpAPI_SearchErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "quota" {
			w.Write([]byte(`{"error":"run out of searches"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer ts.Close()

	provider, err := NewSerpAPI(SerpAPIConfig{APIKey: "bad", BaseURL: ts.URL}, nil)
	if err != nil {
		t.Fatalf("NewSerpAPI: %v", err)
	}

	_, err = provider.Search(context.Background(), Params{Query: "x"})
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 status error, got %v", err)
	}

	if _, err := provider.Search(context.Background(), Params{Query: "quota"}); err == nil {
		t.Errorf("expected error for error body")
	}
}

func TestNewSerpAPI_RequiresKey(t *testing.T) {
	if _, err := NewSerpAPI(SerpAPIConfig{}, nil); err == nil {
		t.Errorf("expected error without api key")
	}
}
