// Package news holds the records the pipeline accumulates per article and the
// static publisher table used to label them.
package news

import (
	"errors"
	"fmt"
	"math"
)

// ErrSentimentRange is returned by BiasScore.Validate for scores outside [-1, 1].
var ErrSentimentRange = errors.New("sentiment_analysis must be between -1 and 1")

// Article is a single search hit and everything learned about it. Optional
// fields stay nil until the stage that fills them has run.
type Article struct {
	// Position is the 1-based rank of the hit in the search response and the
	// article's identity for the rest of the run.
	Position      int    `json:"position"`
	Source        string `json:"source"`
	Link          string `json:"link"`
	Title         string `json:"title,omitempty"`
	Snippet       string `json:"snippet,omitempty"`
	Date          string `json:"date,omitempty"`
	PoliticalBias string `json:"political_bias"`

	Extraction    *Extraction `json:"extracted_content,omitempty"`
	Summary       *Summary    `json:"summary,omitempty"`
	BiasScore     *BiasScore  `json:"bias_score,omitempty"`
	AnalysisError string      `json:"analysis_error,omitempty"`
}

// Extracted reports whether the article has successfully extracted content.
func (a Article) Extracted() bool {
	return a.Extraction.OK()
}

// Extraction is either the article title and body or an error marker.
type Extraction struct {
	Title   string `json:"main_article_title,omitempty"`
	Content string `json:"main_article_content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether e holds content rather than an error marker.
func (e *Extraction) OK() bool {
	return e != nil && e.Error == ""
}

// FailedExtraction builds an error marker.
func FailedExtraction(err error) *Extraction {
	return &Extraction{Error: err.Error()}
}

// BiasScore is the structured result of per-article bias analysis.
type BiasScore struct {
	SentimentAnalysis float64 `json:"sentiment_analysis"`
	BiasShown         string  `json:"bias_shown"`
}

// Validate checks the sentiment range.
func (b BiasScore) Validate() error {
	if math.IsNaN(b.SentimentAnalysis) || b.SentimentAnalysis < -1 || b.SentimentAnalysis > 1 {
		return fmt.Errorf("%w: got %v", ErrSentimentRange, b.SentimentAnalysis)
	}
	return nil
}

// Summary is the optional per-article digest.
type Summary struct {
	Summary    string   `json:"summary"`
	MainPoints []string `json:"main_points"`
}
