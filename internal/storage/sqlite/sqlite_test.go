package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/slant/internal/storage"
)

func TestSQLiteBackend(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "slant.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	ok := &storage.RunRecord{
		ID:               "run-ok",
		Question:         "How are tariffs covered?",
		Subject:          "tariffs",
		SearchParams:     json.RawMessage(`{"q":"tariffs"}`),
		ComparisonReport: "NPR is more critical.",
		Articles:         json.RawMessage(`[{"position":1}]`),
		ArticleCount:     2,
		ScoredCount:      2,
		Duration:         1500 * time.Millisecond,
		CreatedAt:        now.Add(-2 * time.Hour),
	}
	failed := &storage.RunRecord{
		ID:        "run-failed",
		Question:  "budget?",
		Duration:  10 * time.Millisecond,
		CreatedAt: now.Add(-1 * time.Hour),
		Error:     "serp: search failed",
	}

	for _, rec := range []*storage.RunRecord{ok, failed} {
		if err := b.Save(ctx, rec); err != nil {
			t.Fatalf("Failed to save run %s: %v", rec.ID, err)
		}
	}

	results, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query runs: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != "run-failed" {
		t.Errorf("Expected newest run first, got %s", results[0].ID)
	}

	got := results[1]
	if got.Subject != ok.Subject || got.ComparisonReport != ok.ComparisonReport {
		t.Errorf("Expected %+v, got %+v", ok, got)
	}
	if string(got.SearchParams) != string(ok.SearchParams) || string(got.Articles) != string(ok.Articles) {
		t.Errorf("Expected JSON columns to round trip, got %s / %s", got.SearchParams, got.Articles)
	}
	if got.ArticleCount != 2 || got.ScoredCount != 2 {
		t.Errorf("Expected counts 2/2, got %d/%d", got.ArticleCount, got.ScoredCount)
	}
	if got.Duration != ok.Duration {
		t.Errorf("Expected Duration %v, got %v", ok.Duration, got.Duration)
	}
	if got.CreatedAt.Unix() != ok.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", ok.CreatedAt, got.CreatedAt)
	}
	if got.Failed() {
		t.Errorf("Expected successful run, got error %q", got.Error)
	}

	isFailed := true
	resultsFailed, err := b.Query(ctx, storage.Filter{Failed: &isFailed})
	if err != nil {
		t.Fatalf("Failed to query failed runs: %v", err)
	}
	if len(resultsFailed) != 1 || resultsFailed[0].Error != failed.Error {
		t.Fatalf("Expected only the failed run, got %v", resultsFailed)
	}

	resultsSubject, err := b.Query(ctx, storage.Filter{Subject: "tariffs"})
	if err != nil {
		t.Fatalf("Failed to query by subject: %v", err)
	}
	if len(resultsSubject) != 1 || resultsSubject[0].ID != "run-ok" {
		t.Fatalf("Expected run-ok, got %v", resultsSubject)
	}

	resultsPage, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query with offset: %v", err)
	}
	if len(resultsPage) != 1 || resultsPage[0].ID != "run-ok" {
		t.Fatalf("Expected run-ok after offset, got %v", resultsPage)
	}

	if err := b.Save(ctx, ok); err == nil {
		t.Error("Expected duplicate ID to be rejected")
	}
}
