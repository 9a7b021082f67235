//go:build integration

package cache

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/require"
)

// Запуск: REDIS_TEST_ADDR=localhost:6379 go test -tags integration ./internal/infra/cache/
func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR не задан")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "nukem-test:"+uuid.NewString()+":")
}

func TestRedisAllowConcurrentWorkers(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	var allowed atomic.Int64
	var wg conc.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Go(func() {
			ok, err := c.Allow(ctx, "user:1", 5, time.Minute)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				allowed.Add(1)
			}
		})
	}
	wg.Wait()
	require.Equal(t, int64(5), allowed.Load())
}

func TestRedisAllowWindowSlides(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := c.Allow(ctx, "user:2", 2, 300*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := c.Allow(ctx, "user:2", 2, 300*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(400 * time.Millisecond)
	ok, err = c.Allow(ctx, "user:2", 2, 300*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisAcquire(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	left, err := c.Acquire(ctx, "cmd:start:1", time.Minute)
	require.NoError(t, err)
	require.Zero(t, left)

	left, err = c.Acquire(ctx, "cmd:start:1", time.Minute)
	require.NoError(t, err)
	require.Greater(t, left, time.Duration(0))
}
