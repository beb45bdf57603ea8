package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"corebank/internal/config"

	"github.com/go-redis/redis/v8"
)

// InitRedis connects to Redis and verifies the connection. Redis backs the
// per-account ledger locks.
func InitRedis(cfg *config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}

	log.Println("Redis connected")
	return client
}
