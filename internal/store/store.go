package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vibewear/api/internal/config"
	"github.com/vibewear/api/internal/model"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

var ErrUnknownDriver = errors.New("unknown generation log driver")

// GenerationLog is the append-only record of design generation attempts.
type GenerationLog interface {
	Record(ctx context.Context, entry *model.GenerationLogEntry) error
	// List returns the newest entries first.
	List(ctx context.Context, limit int) ([]model.GenerationLogEntry, error)
	Close() error
}

var (
	_ GenerationLog = (*RedisLog)(nil)
	_ GenerationLog = (*PostgresLog)(nil)
	_ GenerationLog = (*SQLiteLog)(nil)
)

// Open builds the backend named by cfg.Driver. The redis backend reuses the
// shared client and does not close it.
func Open(ctx context.Context, cfg *config.GenerationLogConfig, redisClient *redis.Client) (GenerationLog, error) {
	switch cfg.Driver {
	case "", "redis":
		if redisClient == nil {
			return nil, errors.New("redis generation log requires a redis client")
		}
		return NewRedisLog(redisClient), nil
	case "postgres":
		pool, err := NewDBPool(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresLog(ctx, pool)
	case "sqlite":
		db, err := OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return NewSQLiteLog(db)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
