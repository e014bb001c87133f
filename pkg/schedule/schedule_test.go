package schedule_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/schedule"
)

func start(t *testing.T, s *schedule.Scheduler, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	waitCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
}

func TestEvery_RunsOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := schedule.New(clock)

	var runs atomic.Int32
	s.Every(time.Minute, "count", func(context.Context) { runs.Add(1) })
	start(t, s, clock)

	clock.Advance(30 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())

	clock.Advance(30 * time.Second)
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestEvery_PanicDoesNotStopScheduler(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := schedule.New(clock)

	var runs atomic.Int32
	s.Every(time.Second, "boom", func(context.Context) {
		runs.Add(1)
		panic("boom")
	})
	start(t, s, clock)

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestList(t *testing.T) {
	s := schedule.New(clockwork.NewFakeClock())
	s.Every(time.Minute, "sessions.sweep", func(context.Context) {})
	assert.Equal(t, []string{"sessions.sweep  [every 1m0s]"}, s.List())
}
