package cache

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
)

// limiterDatabase keeps rate limit counters apart from the film cache in DB 0
const limiterDatabase = 1

// NewLimiterStorage returns a Redis backed fiber.Storage for the rate limiter,
// or nil when the cache is not reachable. Fiber's limiter falls back to its
// in-memory store on nil.
func NewLimiterStorage(cfg config.CacheConfig, reachable bool) fiber.Storage {
	if cfg.Host == "" || !reachable {
		return nil
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Warnf("[Cache] invalid CACHE_PORT %q, rate limiter stays in memory", cfg.Port)
		return nil
	}

	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: limiterDatabase,
		Reset:    false,
	})
}
