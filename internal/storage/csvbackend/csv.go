// Package csvbackend appends run records to a CSV file. Article lists are kept
// as JSON within a column.
package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/slant/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"id",
	"question",
	"subject",
	"search_params_json",
	"comparison_report",
	"articles_json",
	"article_count",
	"scored_count",
	"failed_count",
	"skipped_count",
	"duration_ms",
	"created_at",
	"error",
}

// New creates a new CSV-backed storage.Backend.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csvbackend: open %s: %w", filePath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csvbackend: stat %s: %w", filePath, err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: write header: %w", err)
		}
	}

	return &csvBackend{file: f}, nil
}

func (b *csvBackend) Save(ctx context.Context, rec *storage.RunRecord) error {
	record := []string{
		rec.ID,
		rec.Question,
		rec.Subject,
		string(rec.SearchParams),
		rec.ComparisonReport,
		string(rec.Articles),
		strconv.Itoa(rec.ArticleCount),
		strconv.Itoa(rec.ScoredCount),
		strconv.Itoa(rec.FailedCount),
		strconv.Itoa(rec.SkippedCount),
		strconv.FormatInt(rec.Duration.Milliseconds(), 10),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.Error,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("csvbackend: seek: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("csvbackend: write run %s: %w", rec.ID, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvbackend: write run %s: %w", rec.ID, err)
	}
	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RunRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("csvbackend: seek: %w", err)
	}
	defer func() {
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []*storage.RunRecord{}, nil
		}
		return nil, fmt.Errorf("csvbackend: read header: %w", err)
	}

	var matched []*storage.RunRecord
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvbackend: read: %w", err)
		}
		if len(record) != len(headers) {
			continue // skip malformed rows
		}

		rec := parseRecord(record)
		if filter.Match(rec) {
			matched = append(matched, rec)
		}
	}

	return filter.Page(matched), nil
}

func parseRecord(record []string) *storage.RunRecord {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	durationMs, _ := strconv.ParseInt(record[10], 10, 64)
	createdAt, _ := time.Parse(time.RFC3339Nano, record[11])

	rec := &storage.RunRecord{
		ID:               record[0],
		Question:         record[1],
		Subject:          record[2],
		ComparisonReport: record[4],
		ArticleCount:     atoi(record[6]),
		ScoredCount:      atoi(record[7]),
		FailedCount:      atoi(record[8]),
		SkippedCount:     atoi(record[9]),
		Duration:         time.Duration(durationMs) * time.Millisecond,
		CreatedAt:        createdAt,
		Error:            record[12],
	}
	if record[3] != "" {
		rec.SearchParams = []byte(record[3])
	}
	if record[5] != "" {
		rec.Articles = []byte(record[5])
	}
	return rec
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
