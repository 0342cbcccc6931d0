package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vibewear/api/internal/model"
)

// sqlitePragmas go in the DSN so every pooled connection gets them, not
// just the first one.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// OpenSQLite opens (or creates) a SQLite database at the given path.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+sqlitePragmas)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// timestamps are stored fixed-width so text order matches time order
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteLog struct {
	db *sql.DB
}

func NewSQLiteLog(db *sql.DB) (*SQLiteLog, error) {
	l := &SQLiteLog{db: db}
	if err := l.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return l, nil
}

func (l *SQLiteLog) migrate() error {
	if _, err := l.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := l.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := l.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	migrations := []func() error{
		l.migrateV1,
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := l.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}
	return nil
}

func (l *SQLiteLog) migrateV1() error {
	_, err := l.db.Exec(`
	CREATE TABLE IF NOT EXISTS generation_logs (
		id              TEXT PRIMARY KEY,
		original_prompt TEXT NOT NULL,
		enhanced_prompt TEXT NOT NULL,
		revised_prompt  TEXT NOT NULL DEFAULT '',
		style           TEXT NOT NULL,
		garment_color   TEXT NOT NULL,
		quality         TEXT NOT NULL,
		success         INTEGER NOT NULL,
		image_url       TEXT NOT NULL DEFAULT '',
		error_message   TEXT NOT NULL DEFAULT '',
		client_key      TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_generation_logs_created ON generation_logs(created_at DESC);
	`)
	return err
}

func (l *SQLiteLog) Record(ctx context.Context, e *model.GenerationLogEntry) error {
	_, err := l.db.ExecContext(ctx, `
	INSERT INTO generation_logs (id, original_prompt, enhanced_prompt, revised_prompt, style, garment_color, quality, success, image_url, error_message, client_key, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OriginalPrompt, e.EnhancedPrompt, e.RevisedPrompt, string(e.Style), e.GarmentColor, string(e.Quality),
		e.Success, e.ImageURL, e.ErrorMessage, e.ClientKey, e.CreatedAt.UTC().Format(sqliteTimeLayout))
	return err
}

func (l *SQLiteLog) List(ctx context.Context, limit int) ([]model.GenerationLogEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
	SELECT id, original_prompt, enhanced_prompt, revised_prompt, style, garment_color, quality, success, image_url, error_message, client_key, created_at
	FROM generation_logs
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.GenerationLogEntry{}
	for rows.Next() {
		var e model.GenerationLogEntry
		var style, quality, createdAt string
		if err := rows.Scan(&e.ID, &e.OriginalPrompt, &e.EnhancedPrompt, &e.RevisedPrompt, &style, &e.GarmentColor, &quality,
			&e.Success, &e.ImageURL, &e.ErrorMessage, &e.ClientKey, &createdAt); err != nil {
			return nil, err
		}
		e.Style = model.StyleID(style)
		e.Quality = model.QualityTier(quality)
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
