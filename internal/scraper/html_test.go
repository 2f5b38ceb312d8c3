package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FranksOps/slant/internal/extract"
	"github.com/google/go-cmp/cmp"
)

const articleHTML = `<html>
<head><title>Tariffs explained | NPR</title><script>var x = 1;</script></head>
<body>
  <header><p>Site navigation</p></header>
  <article>
    <h1>New tariffs take effect</h1>
    <div class="credit-caption"><p>Photo credit</p></div>
    <p>The administration announced   new tariffs.</p>
    <aside><p>Related stories</p></aside>
    <p>Economists disagree on the impact.</p>
  </article>
  <footer><p>Copyright</p></footer>
</body>
</html>`

func TestParse(t *testing.T) {
	got, err := Parse([]byte(articleHTML), extract.Request{
		ExcludeTags:     []string{"aside", "footer", "div.credit-caption"},
		IncludeTags:     []string{"h1", "p"},
		OnlyMainContent: true,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &extract.Content{
		Title:   "New tariffs take effect",
		Content: "The administration announced new tariffs.\n\nEconomists disagree on the impact.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_WholePageWithoutMainContent(t *testing.T) {
	got, err := Parse([]byte(articleHTML), extract.Request{
		ExcludeTags: []string{"aside", "div.credit-caption"},
		IncludeTags: []string{"p"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := "Site navigation\n\nThe administration announced new tariffs.\n\nEconomists disagree on the impact.\n\nCopyright"
	if got.Content != want {
		t.Errorf("unexpected content %q", got.Content)
	}
}

func TestParse_FallsBackToPageTitle(t *testing.T) {
	got, err := Parse([]byte(`<html><head><title>Only a title</title></head><body><p>Body.</p></body></html>`), extract.Request{
		IncludeTags: []string{"p"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Title != "Only a title" {
		t.Errorf("expected page title fallback, got %q", got.Title)
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse([]byte(`<html><body><div>nothing here</div></body></html>`), extract.Request{IncludeTags: []string{"p"}})
	if !errors.Is(err, extract.ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestHTMLExtractor_Extract(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/news/tariffs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	})
	mux.HandleFunc("/private/story", func(w http.ResponseWriter, r *http.Request) {
		t.Error("requested a path disallowed by robots.txt")
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/challenge", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<div id="px-captcha"></div>`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	ex := NewHTMLExtractor(HTMLConfig{RespectRobots: true}, newTestFetcher(t, FetchConfig{}), nil)
	ctx := context.Background()
	req := extract.Request{IncludeTags: []string{"h1", "p"}, ExcludeTags: []string{"aside"}, OnlyMainContent: true}

	req.URL = ts.URL + "/news/tariffs"
	res, err := ex.Extract(ctx, req)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !res.OK() || res.Data.Title != "New tariffs take effect" {
		t.Errorf("unexpected result %+v", res)
	}

	failures := map[string]func(*extract.AdapterFailure) bool{
		"/private/story": func(f *extract.AdapterFailure) bool { return errors.Is(f, ErrDisallowed) },
		"/gone":          func(f *extract.AdapterFailure) bool { return f.StatusCode == http.StatusNotFound },
		"/challenge":     func(f *extract.AdapterFailure) bool { return errors.Is(f, ErrBlocked) },
	}
	for path, check := range failures {
		req.URL = ts.URL + path
		_, err := ex.Extract(ctx, req)
		var failure *extract.AdapterFailure
		if !errors.As(err, &failure) {
			t.Errorf("%s: expected AdapterFailure, got %v", path, err)
			continue
		}
		if !check(failure) {
			t.Errorf("%s: unexpected failure %+v", path, failure)
		}
	}
}
