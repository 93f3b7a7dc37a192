package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"manganime/pkg/logger"
)

// Redis backs the cache with a shared Redis instance so cached notification
// lists survive process restarts and are shared across replicas.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an already-connected client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "manganime"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

// Get returns the cached value if present.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warnf("redis cache get %s: %v", key, err)
		}
		return nil, false
	}
	return value, true
}

// Set stores a value with the given TTL. Failures are logged, never surfaced.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		logger.Warnf("redis cache set %s: %v", key, err)
	}
}

// Delete removes a key.
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		logger.Warnf("redis cache delete %s: %v", key, err)
	}
}
