// Package sqlite stores run records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FranksOps/slant/internal/storage"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	subject TEXT NOT NULL,
	search_params TEXT NOT NULL,
	comparison_report TEXT NOT NULL,
	articles TEXT NOT NULL,
	article_count INTEGER NOT NULL,
	scored_count INTEGER NOT NULL,
	failed_count INTEGER NOT NULL,
	skipped_count INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, rec *storage.RunRecord) error {
	query := `
	INSERT INTO runs (
		id, question, subject, search_params, comparison_report, articles,
		article_count, scored_count, failed_count, skipped_count, duration_ms, created_at, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := b.db.ExecContext(ctx, query,
		rec.ID,
		rec.Question,
		rec.Subject,
		string(rec.SearchParams),
		rec.ComparisonReport,
		string(rec.Articles),
		rec.ArticleCount,
		rec.ScoredCount,
		rec.FailedCount,
		rec.SkippedCount,
		rec.Duration.Milliseconds(),
		rec.CreatedAt.UTC(),
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("sqlite: save run %s: %w", rec.ID, err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RunRecord, error) {
	query := `SELECT id, question, subject, search_params, comparison_report, articles,
		article_count, scored_count, failed_count, skipped_count, duration_ms, created_at, error
		FROM runs WHERE 1=1`
	args := []any{}

	if filter.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, filter.Subject)
	}
	if filter.Failed != nil {
		if *filter.Failed {
			query += ` AND error <> ''`
		} else {
			query += ` AND (error IS NULL OR error = '')`
		}
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query runs: %w", err)
	}
	defer rows.Close()

	var results []*storage.RunRecord
	for rows.Next() {
		var r storage.RunRecord
		var params, articles string
		var durationMs int64
		var runErr sql.NullString

		err := rows.Scan(
			&r.ID, &r.Question, &r.Subject, &params, &r.ComparisonReport, &articles,
			&r.ArticleCount, &r.ScoredCount, &r.FailedCount, &r.SkippedCount,
			&durationMs, &r.CreatedAt, &runErr,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan run: %w", err)
		}

		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Error = runErr.String
		if params != "" {
			r.SearchParams = []byte(params)
		}
		if articles != "" {
			r.Articles = []byte(articles)
		}
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: read runs: %w", err)
	}
	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
