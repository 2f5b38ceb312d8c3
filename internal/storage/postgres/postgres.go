// Package postgres stores run records in PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FranksOps/slant/internal/storage"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	subject TEXT NOT NULL,
	search_params JSONB,
	comparison_report TEXT NOT NULL,
	articles JSONB,
	article_count INTEGER NOT NULL,
	scored_count INTEGER NOT NULL,
	failed_count INTEGER NOT NULL,
	skipped_count INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

// nullJSON maps an empty document to SQL NULL.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func (b *postgresBackend) Save(ctx context.Context, rec *storage.RunRecord) error {
	query := `
	INSERT INTO runs (
		id, question, subject, search_params, comparison_report, articles,
		article_count, scored_count, failed_count, skipped_count, duration_ms, created_at, error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := b.pool.Exec(ctx, query,
		rec.ID,
		rec.Question,
		rec.Subject,
		nullJSON(rec.SearchParams),
		rec.ComparisonReport,
		nullJSON(rec.Articles),
		rec.ArticleCount,
		rec.ScoredCount,
		rec.FailedCount,
		rec.SkippedCount,
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("postgres: save run %s: %w", rec.ID, err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RunRecord, error) {
	query := `SELECT id, question, subject, search_params, comparison_report, articles,
		article_count, scored_count, failed_count, skipped_count, duration_ms, created_at, error
		FROM runs WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Subject != "" {
		query += fmt.Sprintf(` AND subject = $%d`, paramCount)
		args = append(args, filter.Subject)
		paramCount++
	}
	if filter.Failed != nil {
		if *filter.Failed {
			query += ` AND error <> ''`
		} else {
			query += ` AND error = ''`
		}
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query runs: %w", err)
	}
	defer rows.Close()

	var results []*storage.RunRecord
	for rows.Next() {
		var r storage.RunRecord
		var params, articles []byte
		var durationMs int64

		err := rows.Scan(
			&r.ID, &r.Question, &r.Subject, &params, &r.ComparisonReport, &articles,
			&r.ArticleCount, &r.ScoredCount, &r.FailedCount, &r.SkippedCount,
			&durationMs, &r.CreatedAt, &r.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}

		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.SearchParams = params
		r.Articles = articles
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: read runs: %w", err)
	}
	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
