package redis

import (
	"context"
	"testing"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type warnRecorder struct {
	ports.LoggerPort
	warnings []map[string]interface{}
}

func (w *warnRecorder) Warn(_ string, fields map[string]interface{}) {
	w.warnings = append(w.warnings, fields)
}

// unreachableClient points at a closed port so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLocker_ReleaseFailureIsLogged(t *testing.T) {
	log := &warnRecorder{}
	l := NewLocker(unreachableClient(t), log)

	l.release("booking-lock:bike:1", "token")

	require.Len(t, log.warnings, 1)
	assert.Equal(t, "booking-lock:bike:1", log.warnings[0]["key"])
	assert.NotEmpty(t, log.warnings[0]["error"])
}

func TestLocker_AcquireFailsWithoutServer(t *testing.T) {
	l := NewLocker(unreachableClient(t), &warnRecorder{})

	release, err := l.Acquire(context.Background(), "booking-lock:bike:1", time.Second)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrLockHeld)
	assert.Nil(t, release)
}
