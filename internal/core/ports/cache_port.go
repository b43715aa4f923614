package ports

import (
	"context"
	"errors"
	"time"
)

var ErrLockHeld = errors.New("lock is held by another request")

type CachePort interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

// LockPort hands out short-lived advisory locks.
type LockPort interface {
	// Acquire fails with ErrLockHeld when someone else owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
