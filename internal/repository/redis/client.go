// Package redis provides an optional cache layer. The server runs fine
// without it; an unreachable Redis just disables caching.
package redis

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects to Redis. Returns nil (not an error) when Redis is
// unreachable so startup never depends on the cache.
func InitRedis(addr, password string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("[REDIS] Warning: Could not connect to Redis: %v. Falling back to PostgreSQL only.", err)
		return nil
	}

	log.Println("[REDIS] Connected successfully")
	return client
}
