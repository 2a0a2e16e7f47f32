package persist

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores the payload under a single redis key, no expiry.
type RedisSlot struct {
	rdb *redis.Client
	key string
}

func NewRedisSlot(rdb *redis.Client, key string) *RedisSlot {
	return &RedisSlot{rdb: rdb, key: key}
}

func (s *RedisSlot) Load(ctx context.Context) ([]byte, bool, error) {
	payload, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *RedisSlot) Save(ctx context.Context, payload []byte) error {
	return s.rdb.Set(ctx, s.key, payload, 0).Err()
}
