// Package storage records completed analysis runs.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/slant/internal/stages"
)

// RunRecord is the persisted outcome of one analysis run.
type RunRecord struct {
	ID               string          `json:"id"`
	Question         string          `json:"question"`
	Subject          string          `json:"query_subject"`
	SearchParams     json.RawMessage `json:"search_parameters,omitempty"`
	ComparisonReport string          `json:"comparison_report"`
	Articles         json.RawMessage `json:"articles,omitempty"`
	ArticleCount     int             `json:"article_count"`
	ScoredCount      int             `json:"scored_count"`
	FailedCount      int             `json:"failed_count"`
	SkippedCount     int             `json:"skipped_count"`
	Duration         time.Duration   `json:"duration"`
	CreatedAt        time.Time       `json:"created_at"`
	Error            string          `json:"error,omitempty"` // non-empty if the run aborted
}

// Failed reports whether the run aborted.
func (r *RunRecord) Failed() bool {
	return r.Error != ""
}

// FromResult builds a record from a successful run.
func FromResult(res *stages.Result) (*RunRecord, error) {
	params, err := json.Marshal(res.SearchParams)
	if err != nil {
		return nil, fmt.Errorf("storage: encode search parameters: %w", err)
	}
	articles, err := json.Marshal(res.Articles)
	if err != nil {
		return nil, fmt.Errorf("storage: encode articles: %w", err)
	}

	rec := &RunRecord{
		ID:               res.RunID,
		Question:         res.Question,
		Subject:          res.QuerySubject,
		SearchParams:     params,
		ComparisonReport: res.ComparisonReport,
		Articles:         articles,
		ArticleCount:     res.Articles.Len(),
		SkippedCount:     len(res.Skipped),
		Duration:         res.Duration,
		CreatedAt:        res.StartedAt,
	}
	for _, a := range res.Articles.All() {
		if a.BiasScore != nil {
			rec.ScoredCount++
		}
		if (a.Extraction != nil && !a.Extracted()) || a.AnalysisError != "" {
			rec.FailedCount++
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return rec, nil
}

// FromError builds a record for a run that aborted with err.
func FromError(question string, started time.Time, err error) *RunRecord {
	return &RunRecord{
		ID:        uuid.NewString(),
		Question:  question,
		Duration:  time.Since(started),
		CreatedAt: started.UTC(),
		Error:     err.Error(),
	}
}

// Filter allows querying for specific runs.
type Filter struct {
	Subject string
	Failed  *bool
	Since   *time.Time
	Limit   int
	Offset  int
}

// Match reports whether r passes every set field of f except Limit and
// Offset. File backends use it to filter in memory.
func (f Filter) Match(r *RunRecord) bool {
	if f.Subject != "" && r.Subject != f.Subject {
		return false
	}
	if f.Failed != nil && r.Failed() != *f.Failed {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Page orders records newest first and applies Offset and Limit. Records are
// expected in insertion order.
func (f Filter) Page(records []*RunRecord) []*RunRecord {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if f.Offset > 0 {
		if f.Offset >= len(records) {
			return []*RunRecord{}
		}
		records = records[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(records) {
		records = records[:f.Limit]
	}
	return records
}

// Backend defines the interface for storing and querying run records.
type Backend interface {
	Save(ctx context.Context, rec *RunRecord) error
	Query(ctx context.Context, filter Filter) ([]*RunRecord, error)
	Close() error
}
