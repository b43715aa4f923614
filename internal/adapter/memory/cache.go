package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"
)

var ErrCacheMiss = errors.New("cache miss")

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a process-local CachePort used when Redis is not configured.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *Cache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

type Locker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]time.Time)}
}

func (l *Locker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return nil, ports.ErrLockHeld
	}
	expires := now.Add(ttl)
	l.held[key] = expires

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(expires) {
			delete(l.held, key)
		}
	}, nil
}
