package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibewear/api/internal/model"
)

func NewDBPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

type PostgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgresLog creates the generation_logs table if it does not exist.
func NewPostgresLog(ctx context.Context, pool *pgxpool.Pool) (*PostgresLog, error) {
	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS generation_logs (
	id              TEXT PRIMARY KEY,
	original_prompt TEXT NOT NULL,
	enhanced_prompt TEXT NOT NULL,
	revised_prompt  TEXT NOT NULL DEFAULT '',
	style           TEXT NOT NULL,
	garment_color   TEXT NOT NULL,
	quality         TEXT NOT NULL,
	success         BOOLEAN NOT NULL,
	image_url       TEXT NOT NULL DEFAULT '',
	error_message   TEXT NOT NULL DEFAULT '',
	client_key      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generation_logs_created ON generation_logs (created_at DESC);
`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create generation_logs: %w", err)
	}
	return &PostgresLog{pool: pool}, nil
}

func (l *PostgresLog) Record(ctx context.Context, e *model.GenerationLogEntry) error {
	_, err := l.pool.Exec(ctx, `
INSERT INTO generation_logs (id, original_prompt, enhanced_prompt, revised_prompt, style, garment_color, quality, success, image_url, error_message, client_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
`, e.ID, e.OriginalPrompt, e.EnhancedPrompt, e.RevisedPrompt, string(e.Style), e.GarmentColor, string(e.Quality),
		e.Success, e.ImageURL, e.ErrorMessage, e.ClientKey, e.CreatedAt)
	return err
}

func (l *PostgresLog) List(ctx context.Context, limit int) ([]model.GenerationLogEntry, error) {
	rows, err := l.pool.Query(ctx, `
SELECT id, original_prompt, enhanced_prompt, revised_prompt, style, garment_color, quality, success, image_url, error_message, client_key, created_at
FROM generation_logs
ORDER BY created_at DESC
LIMIT $1;
`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.GenerationLogEntry{}
	for rows.Next() {
		var e model.GenerationLogEntry
		var style, quality string
		if err := rows.Scan(&e.ID, &e.OriginalPrompt, &e.EnhancedPrompt, &e.RevisedPrompt, &style, &e.GarmentColor, &quality,
			&e.Success, &e.ImageURL, &e.ErrorMessage, &e.ClientKey, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Style = model.StyleID(style)
		e.Quality = model.QualityTier(quality)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *PostgresLog) Close() error {
	l.pool.Close()
	return nil
}
