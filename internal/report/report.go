// Package report renders the outcome of a bias analysis run.
package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/slant/internal/analyzer"
	"github.com/FranksOps/slant/internal/news"
	"github.com/FranksOps/slant/internal/stages"
)

// Summary contains aggregated figures about a single run.
type Summary struct {
	RunID            string        `json:"run_id"`
	Question         string        `json:"question"`
	Subject          string        `json:"query_subject"`
	ComparisonReport string        `json:"comparison_report"`
	StartTime        time.Time     `json:"start_time"`
	Duration         time.Duration `json:"duration"`

	TotalArticles      int `json:"total_articles"`
	Extracted          int `json:"extracted"`
	ExtractionFailures int `json:"extraction_failures"`
	Scored             int `json:"scored"`
	AnalysisFailures   int `json:"analysis_failures"`
	Skipped            int `json:"skipped_hits"`

	Outlets []Outlet `json:"outlets"`
}

// Outlet holds the per-publisher figures.
type Outlet struct {
	Publisher string `json:"publisher"`
	Bias      string `json:"political_bias"`
	Articles  int    `json:"articles"`
	Extracted int    `json:"extracted"`
	Scored    int    `json:"scored"`
	// MeanSentiment is nil when no article from the outlet was scored.
	MeanSentiment *float64           `json:"mean_sentiment,omitempty"`
	Mentions      []analyzer.Mention `json:"subject_mentions,omitempty"`
	Items         []Item             `json:"items"`
}

// Item is one article line in a report.
type Item struct {
	Position  int      `json:"position"`
	Title     string   `json:"title"`
	Link      string   `json:"link"`
	Sentiment *float64 `json:"sentiment,omitempty"`
	BiasShown string   `json:"bias_shown,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Summarize aggregates a run result by outlet, in the order outlets first
// appear in the search results.
func Summarize(r *stages.Result) Summary {
	s := Summary{
		RunID:            r.RunID,
		Question:         r.Question,
		Subject:          r.QuerySubject,
		ComparisonReport: r.ComparisonReport,
		StartTime:        r.StartedAt,
		Duration:         r.Duration,
		TotalArticles:    r.Articles.Len(),
		Skipped:          len(r.Skipped),
	}

	terms := analyzer.Terms(r.QuerySubject)
	grouped := news.GroupBySource(r.Articles)

	for _, publisher := range grouped.Publishers() {
		o := Outlet{Publisher: publisher}
		var sum float64
		counts := map[string]int{}

		for _, a := range grouped.Articles(publisher) {
			o.Articles++
			if o.Bias == "" {
				o.Bias = a.PoliticalBias
			}

			item := Item{Position: a.Position, Title: a.Title, Link: a.Link}
			switch {
			case a.Extracted():
				o.Extracted++
				s.Extracted++
				if a.Extraction.Title != "" {
					item.Title = a.Extraction.Title
				}
				for _, m := range analyzer.Mentions(a.Extraction.Content, terms) {
					counts[m.Term] += m.Count
				}
			case a.Extraction != nil:
				s.ExtractionFailures++
				item.Error = a.Extraction.Error
			}

			if a.BiasScore != nil {
				o.Scored++
				s.Scored++
				score := a.BiasScore.SentimentAnalysis
				sum += score
				item.Sentiment = &score
				item.BiasShown = a.BiasScore.BiasShown
			}
			if a.AnalysisError != "" {
				s.AnalysisFailures++
				if item.Error == "" {
					item.Error = a.AnalysisError
				}
			}
			o.Items = append(o.Items, item)
		}

		if o.Scored > 0 {
			mean := sum / float64(o.Scored)
			o.MeanSentiment = &mean
		}
		for _, term := range terms {
			if n := counts[term]; n > 0 {
				o.Mentions = append(o.Mentions, analyzer.Mention{Term: term, Count: n})
			}
		}
		s.Outlets = append(s.Outlets, o)
	}
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

var funcs = map[string]any{
	"sentiment": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%+.2f", *v)
	},
}

const textTmpl = `Slant Bias Report
-----------------
Question:   {{.Question}}
Subject:    {{.Subject}}
Run:        {{.RunID}}
Started:    {{.StartTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})
Articles:   {{.TotalArticles}} ({{.Extracted}} extracted, {{.ExtractionFailures}} failed, {{.Scored}} scored, {{.AnalysisFailures}} unparsable)
{{- if .Skipped}}
Skipped:    {{.Skipped}} hits from unknown publishers
{{- end}}
{{range .Outlets}}
{{.Publisher}} [{{.Bias}}]: {{.Articles}} articles, {{.Scored}} scored, mean sentiment {{sentiment .MeanSentiment}}
{{- range .Mentions}}
  mentions "{{.Term}}": {{.Count}}
{{- end}}
{{- range .Items}}
  #{{.Position}} {{sentiment .Sentiment}} {{.Title}}
{{- if .BiasShown}}
      {{.BiasShown}}
{{- end}}
{{- if .Error}}
      error: {{.Error}}
{{- end}}
{{- end}}
{{else}}
No articles found.
{{end}}
Comparison
----------
{{if .ComparisonReport}}{{.ComparisonReport}}{{else}}None{{end}}
`

// WriteText writes a human-readable text report to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	t, err := template.New("textReport").Funcs(funcs).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: parse text template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render text: %w", err)
	}
	return nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Slant Bias Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; vertical-align: top; }
  th { background: #eaeaea; }
  .error { color: #b00; }
  .comparison { white-space: pre-wrap; background: #f9f9f9; padding: 16px; }
</style>
</head>
<body>
  <h1>Slant Bias Report</h1>
  <p><strong>Question:</strong> {{.Question}}</p>
  <p><strong>Subject:</strong> {{.Subject}}</p>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Articles</div>
    <div class="stat-val">{{.TotalArticles}}</div>
  </div>
  <div class="stat-card">
    <div>Scored</div>
    <div class="stat-val">{{.Scored}}</div>
  </div>
  <div class="stat-card">
    <div>Extraction Failures</div>
    <div class="stat-val" style="color: {{if gt .ExtractionFailures 0}}red{{else}}green{{end}};">{{.ExtractionFailures}}</div>
  </div>
  <div class="stat-card">
    <div>Unparsable</div>
    <div class="stat-val">{{.AnalysisFailures}}</div>
  </div>

  {{- range .Outlets}}
  <h3>{{.Publisher}} ({{.Bias}}), mean sentiment {{sentiment .MeanSentiment}}</h3>
  <table>
    <tr><th>#</th><th>Article</th><th>Sentiment</th><th>Bias shown</th></tr>
    {{- range .Items}}
    <tr>
      <td>{{.Position}}</td>
      <td><a href="{{.Link}}">{{.Title}}</a>{{if .Error}}<div class="error">{{.Error}}</div>{{end}}</td>
      <td>{{sentiment .Sentiment}}</td>
      <td>{{.BiasShown}}</td>
    </tr>
    {{- end}}
  </table>
  {{- else}}
  <p>No articles found.</p>
  {{- end}}

  <h3>Comparison</h3>
  <div class="comparison">{{if .ComparisonReport}}{{.ComparisonReport}}{{else}}None{{end}}</div>
</body>
</html>
`

// WriteHTML writes an HTML report to the provided writer. Article text is
// escaped.
func WriteHTML(w io.Writer, summary Summary) error {
	t, err := htmltemplate.New("htmlReport").Funcs(funcs).Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("report: parse html template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}

// Write renders summary in the named format: text, json or html.
func Write(w io.Writer, format string, summary Summary) error {
	switch format {
	case "", "text":
		return WriteText(w, summary)
	case "json":
		return WriteJSON(w, summary)
	case "html":
		return WriteHTML(w, summary)
	}
	return fmt.Errorf("report: unknown format %q", format)
}
