package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisMemory struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisMemory(rdb *redis.Client, ttl time.Duration) *RedisMemory {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisMemory{rdb: rdb, ttl: ttl}
}

func key(threadID string) string { return "thread:" + threadID + ":messages" }

func (m *RedisMemory) Append(ctx context.Context, threadID string, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	pipe := m.rdb.TxPipeline()
	pipe.RPush(ctx, key(threadID), b)
	pipe.Expire(ctx, key(threadID), m.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (m *RedisMemory) History(ctx context.Context, threadID string, limit int64) ([]Message, error) {
	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := m.rdb.LRange(ctx, key(threadID), start, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(raw))
	for _, r := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(r), &msg); err != nil {
			// corrupt entry: skip rather than fail the whole read
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (m *RedisMemory) Clear(ctx context.Context, threadID string) error {
	return m.rdb.Del(ctx, key(threadID)).Err()
}
