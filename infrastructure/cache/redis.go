package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to redis and verifies the connection
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

var _ Cache[struct{}] = (*RedisCache[struct{}])(nil)

// RedisCache stores JSON encoded values under a key prefix
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
}

func NewRedisCache[T any](client *redis.Client, prefix string) *RedisCache[T] {
	return &RedisCache[T]{client: client, prefix: prefix}
}

func (r *RedisCache[T]) key(k string) string { return r.prefix + k }

func (r *RedisCache[T]) decode(raw string, err error) (T, error) {
	var v T
	if errors.Is(err, redis.Nil) {
		return v, ErrCacheMiss
	}
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("cache: invalid value: %w", err)
	}
	return v, nil
}

func (r *RedisCache[T]) Get(ctx context.Context, key string) (T, error) {
	return r.decode(r.client.Get(ctx, r.key(key)).Result())
}

func (r *RedisCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

func (r *RedisCache[T]) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (r *RedisCache[T]) Take(ctx context.Context, key string) (T, error) {
	return r.decode(r.client.GetDel(ctx, r.key(key)).Result())
}
