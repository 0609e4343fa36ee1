package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/openbell/tapescan/internal/models"
)

// RedisStore keeps series under tape:<date>:<code>. A TTL of zero keeps
// artifacts until evicted.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// DialRedisStore connects to addr and wraps the client.
func DialRedisStore(addr string, ttl time.Duration) *RedisStore {
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}), ttl)
}

func seriesKey(date, code string) string {
	return fmt.Sprintf("tape:%s:%s", date, code)
}

func (s *RedisStore) Get(ctx context.Context, date, code string) (models.TickSeries, error) {
	data, err := s.rdb.Get(ctx, seriesKey(date, code)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get series: %w", err)
	}
	var series models.TickSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("decode series artifact: %w", err)
	}
	return series, nil
}

func (s *RedisStore) Put(ctx context.Context, date, code string, series models.TickSeries) error {
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode series artifact: %w", err)
	}
	if err := s.rdb.Set(ctx, seriesKey(date, code), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis put series: %w", err)
	}
	return nil
}

func (s *RedisStore) Has(ctx context.Context, date, code string) (bool, error) {
	n, err := s.rdb.Exists(ctx, seriesKey(date, code)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check series: %w", err)
	}
	return n > 0, nil
}
