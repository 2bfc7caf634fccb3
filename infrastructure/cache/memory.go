package cache

import (
	"context"
	"sync"
	"time"
)

type cacheItem[T any] struct {
	value     T
	expiresAt time.Time
}

var _ Cache[struct{}] = (*MemoryCache[struct{}])(nil)

// MemoryCache keeps values in process with lazy expiration.
// Suitable for single-instance deployments and tests.
type MemoryCache[T any] struct {
	mu    sync.Mutex
	items map[string]cacheItem[T]
	now   func() time.Time
}

func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{items: make(map[string]cacheItem[T]), now: time.Now}
}

// WithClock replaces the time source, used by tests
func (m *MemoryCache[T]) WithClock(now func() time.Time) *MemoryCache[T] {
	m.now = now
	return m
}

func (m *MemoryCache[T]) Get(ctx context.Context, key string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(key)
}

func (m *MemoryCache[T]) getLocked(key string) (T, error) {
	var zero T
	item, ok := m.items[key]
	if !ok {
		return zero, ErrCacheMiss
	}
	if !m.now().Before(item.expiresAt) {
		delete(m.items, key)
		return zero, ErrCacheMiss
	}
	return item.value, nil
}

func (m *MemoryCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = cacheItem[T]{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryCache[T]) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryCache[T]) Take(ctx context.Context, key string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.getLocked(key)
	delete(m.items, key)
	return v, err
}
