package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by Redis. Values are stored as JSON under
// prefix+key and expire through Redis TTLs.
type Redis[V any] struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store.
func NewRedis[V any](client redis.Cmdable, prefix string, ttl time.Duration) *Redis[V] {
	return &Redis[V]{client: client, prefix: prefix, ttl: ttl}
}

// Get implements Store.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var v V

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return v, false, nil
		}
		return v, false, fmt.Errorf("redis get %s: %w", r.prefix, err)
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("unmarshal cached %s: %w", r.prefix, err)
	}
	return v, true, nil
}

// Set implements Store.
func (r *Redis[V]) Set(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cached %s: %w", r.prefix, err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.prefix, err)
	}
	return nil
}
