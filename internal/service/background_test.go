package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"reminderapi/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_GoWaitsOnShutdown(t *testing.T) {
	r := NewRunner(logger.Discard())

	var done atomic.Bool
	r.Go("slow", func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		done.Store(true)
		return nil
	})
	r.Go("failing", func(ctx context.Context) error { return errors.New("boom") })
	r.Go("panicking", func(ctx context.Context) error { panic("bad") })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
	assert.True(t, done.Load())
}

func TestRunner_ShutdownDeadlineCancelsTasks(t *testing.T) {
	r := NewRunner(logger.Discard())

	var cancelled atomic.Bool
	r.Go("blocked", func(ctx context.Context) error {
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Shutdown(ctx), context.DeadlineExceeded)
	assert.True(t, cancelled.Load())
}

func TestRunner_Every(t *testing.T) {
	r := NewRunner(logger.Discard())

	var runs atomic.Int32
	r.Every("tick", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	r.Every("disabled", 0, func(ctx context.Context) error {
		t.Error("disabled task ran")
		return nil
	})

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, r.Shutdown(context.Background()))

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestRunner_ShutdownLetsPeriodicRunFinish(t *testing.T) {
	r := NewRunner(logger.Discard())

	started := make(chan struct{})
	var finished atomic.Bool
	var once atomic.Bool
	r.Every("sync", 5*time.Millisecond, func(ctx context.Context) error {
		if !once.CompareAndSwap(false, true) {
			return nil
		}
		close(started)
		select {
		case <-time.After(50 * time.Millisecond):
			finished.Store(true)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	<-started
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
	assert.True(t, finished.Load(), "in-flight periodic run was cancelled")
}
