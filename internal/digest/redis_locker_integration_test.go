//go:build integration

package digest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *redis.Client) {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	return NewRedisLocker(client, "test:"+uuid.NewString()+":"), client
}

func TestRedisLocker_Exclusive(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisLocker(t)

	release, err := l.Acquire(ctx, JobID, time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, JobID, time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, release(ctx))
	assert.ErrorIs(t, release(ctx), ErrLockNotHeld)

	again, err := l.Acquire(ctx, JobID, time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLocker_ReleaseDoesNotStealNewHolder(t *testing.T) {
	ctx := context.Background()
	l, client := newRedisLocker(t)

	stale, err := l.Acquire(ctx, JobID, 50*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	fresh, err := l.Acquire(ctx, JobID, time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, stale(ctx), ErrLockNotHeld)
	exists, err := client.Exists(ctx, l.prefix+JobID).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	require.NoError(t, fresh(ctx))
}
