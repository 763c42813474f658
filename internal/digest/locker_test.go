package digest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	release, err := l.Acquire(ctx, JobID, time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, JobID, time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := l.Acquire(ctx, "other", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "release is idempotent")

	again, err := l.Acquire(ctx, JobID, time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLocker_RejectsZeroTTL(t *testing.T) {
	l := NewRedisLocker(nil, "")
	_, err := l.Acquire(context.Background(), JobID, 0)
	assert.Error(t, err)
}
