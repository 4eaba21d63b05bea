package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tweet-monitor/internal/domain"
	"tweet-monitor/internal/usecases"
)

// DefaultRedisRetention is how long daily keys are kept.
const DefaultRedisRetention = 7 * 24 * time.Hour

// RedisStore pushes processed tweets onto a per-day list and keeps a
// per-day counter next to it.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewRedisStore wraps client. Keys are namespaced by prefix.
func NewRedisStore(client *redis.Client, prefix string, retention time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "tweet-monitor"
	}
	if retention <= 0 {
		retention = DefaultRedisRetention
	}
	return &RedisStore{client: client, prefix: prefix, retention: retention, now: time.Now}
}

// Name returns "redis".
func (s *RedisStore) Name() string {
	return "redis"
}

// ListKey is the list holding tweets stored on t's day.
func (s *RedisStore) ListKey(t time.Time) string {
	return fmt.Sprintf("%s:tweets:%s", s.prefix, t.Format("20060102"))
}

// CountKey is the counter for t's day.
func (s *RedisStore) CountKey(t time.Time) string {
	return fmt.Sprintf("%s:count:%s", s.prefix, t.Format("20060102"))
}

// Process stores the batch in a single transaction.
func (s *RedisStore) Process(ctx context.Context, batch domain.Batch) error {
	tweets := batch.Processed()
	if len(tweets) == 0 {
		return nil
	}

	values := make([]any, 0, len(tweets))
	for _, t := range tweets {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal tweet %s: %w", t.ID, err)
		}
		values = append(values, data)
	}

	now := s.now()
	listKey, countKey := s.ListKey(now), s.CountKey(now)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, listKey, values...)
		pipe.IncrBy(ctx, countKey, int64(len(values)))
		pipe.Expire(ctx, listKey, s.retention)
		pipe.Expire(ctx, countKey, s.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis store: %w", err)
	}
	return nil
}

// CountToday reads today's counter.
func (s *RedisStore) CountToday(ctx context.Context) (usecases.DailyCount, error) {
	key := s.CountKey(s.now())

	n, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return usecases.DailyCount{Location: key}, nil
	}
	if err != nil {
		return usecases.DailyCount{}, fmt.Errorf("redis count: %w", err)
	}
	return usecases.DailyCount{Count: n, Location: key, Found: true}, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
