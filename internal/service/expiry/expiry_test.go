package expiry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andriarta/payrecon/internal/models"
)

type fakeSweeper struct {
	mu    sync.Mutex
	calls int
	nows  []time.Time
	err   error
}

func (f *fakeSweeper) SweepExpired(ctx context.Context, now time.Time) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.nows = append(f.nows, now)
	return nil, f.err
}

func (f *fakeSweeper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestMonitorRun(t *testing.T) {
	t.Run("sweeps eagerly and on every tick", func(t *testing.T) {
		sweeper := &fakeSweeper{}
		monitor := NewMonitor(sweeper, 10*time.Millisecond, nil)

		ctx, cancel := context.WithCancel(t.Context())
		stopped := monitor.Run(ctx)

		require.Eventually(t, func() bool {
			return sweeper.callCount() >= 3
		}, time.Second, time.Millisecond, "expected the eager sweep plus ticks")

		cancel()

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("monitor did not stop after context cancellation")
		}
	})

	t.Run("stops without any tick", func(t *testing.T) {
		sweeper := &fakeSweeper{}
		monitor := NewMonitor(sweeper, time.Hour, nil)

		ctx, cancel := context.WithCancel(t.Context())
		stopped := monitor.Run(ctx)
		cancel()

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("monitor did not stop after context cancellation")
		}

		require.Equal(t, 1, sweeper.callCount(), "only the eager sweep may run")
	})

	t.Run("keeps running after sweep errors", func(t *testing.T) {
		sweeper := &fakeSweeper{err: errors.New("db gone")}
		monitor := NewMonitor(sweeper, 10*time.Millisecond, nil)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		monitor.Run(ctx)

		require.Eventually(t, func() bool {
			return sweeper.callCount() >= 2
		}, time.Second, time.Millisecond, "errors must not kill the loop")
	})

	t.Run("zero interval falls back to default", func(t *testing.T) {
		monitor := NewMonitor(&fakeSweeper{}, 0, nil)
		require.Equal(t, DefaultInterval, monitor.interval)
	})
}
