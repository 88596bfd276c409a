package crontab

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nollidnosnhoj/ggpx/internal/config"
)

type sweeperFunc func(ctx context.Context) (int, error)

func (f sweeperFunc) SweepOrphanedUploads(ctx context.Context) (int, error) { return f(ctx) }

type mockLocker struct {
	WithLockFunc func(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error
}

func (m *mockLocker) WithLock(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	return m.WithLockFunc(ctx, name, ttl, fn)
}

func newTestConfig() *config.Config {
	return &config.Config{
		UploadSweepEnabled:      true,
		UploadSweepIntervalMins: 15,
		UploadSweepLockExpiry:   time.Minute,
	}
}

func TestRunSweepWithoutLocker(t *testing.T) {
	var calls atomic.Int32
	c := NewCrontab(newTestConfig(), sweeperFunc(func(context.Context) (int, error) {
		calls.Add(1)
		return 3, nil
	}), nil, zerolog.Nop())

	c.runSweep(context.Background())
	assert.EqualValues(t, 1, calls.Load())
}

func TestRunSweepHoldsLock(t *testing.T) {
	var calls atomic.Int32
	var lockName string
	var lockTTL time.Duration
	locker := &mockLocker{WithLockFunc: func(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
		lockName, lockTTL = name, ttl
		return fn(ctx)
	}}
	c := NewCrontab(newTestConfig(), sweeperFunc(func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("boom")
	}), locker, zerolog.Nop())

	c.runSweep(context.Background())
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, SweepLockName, lockName)
	assert.Equal(t, time.Minute, lockTTL)
}

func TestRunSweepSkipsWhenLockTaken(t *testing.T) {
	var calls atomic.Int32
	locker := &mockLocker{WithLockFunc: func(context.Context, string, time.Duration, func(ctx context.Context) error) error {
		return errors.New("lock already taken")
	}}
	c := NewCrontab(newTestConfig(), sweeperFunc(func(context.Context) (int, error) {
		calls.Add(1)
		return 0, nil
	}), locker, zerolog.Nop())

	c.runSweep(context.Background())
	assert.Zero(t, calls.Load())
}

func TestRunSweepsOnStartAndStopsOnCancel(t *testing.T) {
	swept := make(chan struct{}, 1)
	c := NewCrontab(newTestConfig(), sweeperFunc(func(context.Context) (int, error) {
		select {
		case swept <- struct{}{}:
		default:
		}
		return 0, nil
	}), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-swept:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not run on start")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("crontab did not stop")
	}
}

func TestRunDisabledDoesNotSweep(t *testing.T) {
	cfg := newTestConfig()
	cfg.UploadSweepEnabled = false
	var calls atomic.Int32
	c := NewCrontab(cfg, sweeperFunc(func(context.Context) (int, error) {
		calls.Add(1)
		return 0, nil
	}), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Run(ctx))
	assert.Zero(t, calls.Load())
}
