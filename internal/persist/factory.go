package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/schedcal/libs/db"
)

// Config selects and parameterizes the durable slot backend.
type Config struct {
	Backend     string // file (default), sqlite, postgres, redis
	Path        string // file/sqlite location
	DatabaseURL string // postgres
	RedisAddr   string // redis
}

// Open builds the configured Slot. It returns the slot, a close func for the
// backend's resources, and a readiness probe suitable for /readyz.
func Open(ctx context.Context, cfg Config) (Slot, func(), func(context.Context) error, error) {
	noop := func() {}
	switch cfg.Backend {
	case "", "file":
		path := cfg.Path
		if path == "" {
			path = "appointments.json"
		}
		slot, err := NewFileSlot(path)
		if err != nil {
			return nil, nil, nil, err
		}
		return slot, noop, func(context.Context) error { return nil }, nil

	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "schedcal.db"
		}
		slot, err := NewSQLiteSlot(path, SlotKey)
		if err != nil {
			return nil, nil, nil, err
		}
		return slot, func() { _ = slot.Close() }, slot.Ping, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, nil, errors.New("DATABASE_URL is required for the postgres slot backend")
		}
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		slot, err := NewPostgresSlot(ctx, pool, SlotKey)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return slot, pool.Close, db.ReadyCheck(pool), nil

	case "redis":
		if cfg.RedisAddr == "" {
			return nil, nil, nil, errors.New("REDIS_ADDR is required for the redis slot backend")
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		slot := NewRedisSlot(rdb, SlotKey)
		ready := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return slot, func() { _ = rdb.Close() }, ready, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown slot backend %q", cfg.Backend)
	}
}
