package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vibewear/api/internal/model"
)

const (
	generationStream = "generation_log"
	streamMaxLen     = 100000
)

// RedisLog keeps entries in a capped Redis stream, one JSON document per message.
type RedisLog struct {
	redis *redis.Client
}

func NewRedisLog(redisClient *redis.Client) *RedisLog {
	return &RedisLog{redis: redisClient}
}

func (l *RedisLog) Record(ctx context.Context, entry *model.GenerationLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	return l.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: generationStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"entry": data},
	}).Err()
}

func (l *RedisLog) List(ctx context.Context, limit int) ([]model.GenerationLogEntry, error) {
	msgs, err := l.redis.XRevRangeN(ctx, generationStream, "+", "-", int64(clampLimit(limit))).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.GenerationLogEntry, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["entry"].(string)
		if !ok {
			continue
		}
		var entry model.GenerationLogEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", msg.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *RedisLog) Close() error {
	return nil
}
