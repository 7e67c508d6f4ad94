// Package cache holds the key/value storage shared by the rate limiter and the
// one-time-password flows.
package cache

import (
	"time"

	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is the process-wide storage. Tests replace it with NewMemoryStorage().
var Store fiber.Storage = NewMemoryStorage()

// Counter is implemented by storages that can increment a key atomically.
// The expiry is set by the increment that creates the key and never extended.
type Counter interface {
	Incr(key string, exp time.Duration) (int64, error)
}

// Incr increments key on Store.
func Incr(key string, exp time.Duration) (int64, error) {
	c, ok := Store.(Counter)
	if !ok {
		return 0, errors.New("storage does not support counters")
	}
	return c.Incr(key, exp)
}

// Client is set when Redis is configured; the email queue reuses its URL.
var Client *redis.Client

// Init connects to Redis when a URL is configured and falls back to memory.
func Init(redisURL string) {
	log := logger.Module("cache")
	if redisURL == "" {
		log.Warn("REDIS_URL not set, using in-memory storage")
		Store = NewMemoryStorage()
		return
	}

	client, err := NewRedisClient(redisURL)
	if err != nil {
		log.Error("redis unavailable, using in-memory storage", zap.Error(err))
		Store = NewMemoryStorage()
		return
	}

	Client = client
	Store = NewRedisStorage(client, "elevate:")
	log.Info("redis storage connected")
}

func Close() {
	if Store != nil {
		_ = Store.Close()
	}
}
