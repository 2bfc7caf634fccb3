package cache

import (
	"context"
	"time"
)

// Cache is a typed key-value cache with TTL
type Cache[T any] interface {
	// Get returns ErrCacheMiss when the key is absent or expired
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Take atomically reads and removes a key
	Take(ctx context.Context, key string) (T, error)
}
