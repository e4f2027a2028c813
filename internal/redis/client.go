package redis

import (
	"github.com/redis/go-redis/v9"

	"github.com/aarongarrett/quorum/config"
)

// NewClient creates a Redis client from application config.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
