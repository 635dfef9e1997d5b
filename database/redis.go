package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Top-Pesinde/backend-sub001/config"

	"github.com/redis/go-redis/v9"
)

// Redis holds one client per logical database: Cache for the unread counters,
// Adapter for the socket.io pub/sub adapter.
type Redis struct {
	Cache   *redis.Client
	Adapter *redis.Client
}

func RedisConnect(ctx context.Context, cfg *config.Settings, log *slog.Logger) (*Redis, error) {
	client := func(db int) *redis.Client {
		return redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       db,
		})
	}

	r := &Redis{
		Cache:   client(cfg.RedisDB),
		Adapter: client(cfg.RedisAdapterDB),
	}
	if err := r.Cache.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	log.Info("Connections opened to Redis", "cache_db", cfg.RedisDB, "adapter_db", cfg.RedisAdapterDB)
	return r, nil
}

func (r *Redis) Close() error {
	err := r.Cache.Close()
	if aerr := r.Adapter.Close(); err == nil {
		err = aerr
	}
	return err
}
