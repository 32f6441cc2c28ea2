package cache

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
)

// New creates the Redis client for cfg. It returns nil when no cache host is
// configured. An unreachable server only logs a warning; callers degrade to
// the database on every cache error.
func New(cfg config.CacheConfig) *redis.Client {
	addr := cfg.Addr()
	if addr == "" {
		log.Info("[Cache] no CACHE_HOST configured, film cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] could not connect to %s: %v", addr, err)
	} else {
		log.Infof("[Cache] connected to %s: %s", addr, pong)
	}
	return client
}

// Reachable reports whether the client answers a ping within a second
func Reachable(client *redis.Client) bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
