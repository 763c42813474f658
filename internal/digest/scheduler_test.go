package digest_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/taskdigest-api/internal/digest"
	"github.com/phrazzld/taskdigest-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context) (digest.RunReport, error)

func (f runnerFunc) Run(ctx context.Context) (digest.RunReport, error) { return f(ctx) }

var validSchedulerConfig = digest.SchedulerConfig{
	Schedule: "16 10 * * *",
	Timezone: "Asia/Kolkata",
	LockTTL:  time.Minute,
}

func TestNewScheduler_Validation(t *testing.T) {
	noop := runnerFunc(func(context.Context) (digest.RunReport, error) { return digest.RunReport{}, nil })

	tests := []struct {
		name string
		cfg  digest.SchedulerConfig
	}{
		{"bad timezone", digest.SchedulerConfig{Schedule: "16 10 * * *", Timezone: "Mars/Olympus", LockTTL: time.Minute}},
		{"bad schedule", digest.SchedulerConfig{Schedule: "every morning", Timezone: "UTC", LockTTL: time.Minute}},
		{"too many fields", digest.SchedulerConfig{Schedule: "0 16 10 * * *", Timezone: "UTC", LockTTL: time.Minute}},
		{"zero ttl", digest.SchedulerConfig{Schedule: "16 10 * * *", Timezone: "UTC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := digest.NewScheduler(tt.cfg, noop, nil, nil)
			assert.Error(t, err)
		})
	}

	_, err := digest.NewScheduler(validSchedulerConfig, nil, nil, nil)
	assert.Error(t, err)

	_, err = digest.NewScheduler(validSchedulerConfig, noop, nil, nil)
	assert.NoError(t, err)
}

func TestScheduler_RunNow(t *testing.T) {
	want := digest.RunReport{UsersSeen: 3, Sent: 2, Skipped: 1}
	s, err := digest.NewScheduler(validSchedulerConfig,
		runnerFunc(func(context.Context) (digest.RunReport, error) { return want, nil }),
		digest.NewLocalLocker(), nil)
	require.NoError(t, err)

	got, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The lock is released after each run.
	_, err = s.RunNow(context.Background())
	require.NoError(t, err)
}

func TestScheduler_RunsNeverOverlap(t *testing.T) {
	started := make(chan struct{})
	finish := make(chan struct{})
	var runs atomic.Int32

	locker := digest.NewLocalLocker()
	s, err := digest.NewScheduler(validSchedulerConfig,
		runnerFunc(func(context.Context) (digest.RunReport, error) {
			runs.Add(1)
			close(started)
			<-finish
			return digest.RunReport{}, nil
		}),
		locker, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background())
		done <- err
	}()
	<-started

	_, err = s.RunNow(context.Background())
	assert.ErrorIs(t, err, digest.ErrLockHeld)

	close(finish)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_RunNowPropagatesRunnerError(t *testing.T) {
	boom := errors.New("boom")
	s, err := digest.NewScheduler(validSchedulerConfig,
		runnerFunc(func(context.Context) (digest.RunReport, error) { return digest.RunReport{}, boom }),
		nil, nil)
	require.NoError(t, err)

	_, err = s.RunNow(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = s.RunNow(context.Background())
	assert.ErrorIs(t, err, boom, "a failed run still releases the lock")
}

func TestScheduler_StartStop(t *testing.T) {
	buf, log := logger.NewTestLogger()
	s, err := digest.NewScheduler(validSchedulerConfig,
		runnerFunc(func(context.Context) (digest.RunReport, error) { return digest.RunReport{}, nil }),
		nil, log)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))

	assert.Contains(t, buf.String(), "digest scheduler started")
	assert.Contains(t, buf.String(), "Asia/Kolkata")
}
