package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntervalSchedulerRunsJob(t *testing.T) {
	s := NewIntervalScheduler(5 * time.Millisecond)

	var runs atomic.Int32
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, after, runs.Load())
}

func TestIntervalSchedulerDisabled(t *testing.T) {
	s := NewIntervalScheduler(0)

	var runs atomic.Int32
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))
	time.Sleep(10 * time.Millisecond)

	require.Zero(t, runs.Load())
	require.NoError(t, s.Stop(context.Background()))
}

func TestIntervalSchedulerStopsOnContext(t *testing.T) {
	s := NewIntervalScheduler(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx, func(time.Time) {}))
	cancel()
	require.NoError(t, s.Stop(context.Background()))
}
