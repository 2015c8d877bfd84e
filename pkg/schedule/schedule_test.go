package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskRunsImmediatelyThenOnInterval(t *testing.T) {
	s := New(WithTick(5 * time.Millisecond))
	var runs atomic.Int32
	s.Every(20 * time.Millisecond).Name("count").Run(func(context.Context) { runs.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Start(ctx); close(done) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestWithoutOverlappingSkipsBusyTask(t *testing.T) {
	s := New(WithTick(time.Millisecond))
	var runs atomic.Int32
	release := make(chan struct{})
	s.Every(time.Millisecond).WithoutOverlapping().Run(func(ctx context.Context) {
		runs.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Start(ctx); close(done) }()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	close(release)
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestPanickingTaskDoesNotStopScheduler(t *testing.T) {
	s := New(WithTick(time.Millisecond))
	var runs atomic.Int32
	s.Every(time.Millisecond).Run(func(context.Context) {
		runs.Add(1)
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Start(ctx); close(done) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestDelayedTaskWaitsOneInterval(t *testing.T) {
	s := New(WithTick(time.Millisecond))
	var runs atomic.Int32
	s.Every(time.Hour).Delayed().Run(func(context.Context) { runs.Add(1) })
	s.Every(time.Hour).Run(func(context.Context) { runs.Add(10) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Start(ctx); close(done) }()

	assert.Eventually(t, func() bool { return runs.Load() == 10 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(10), runs.Load())
	cancel()
	<-done
}

func TestList(t *testing.T) {
	s := New()
	s.Every(time.Minute).Name("limiter.sweep").Run(func(context.Context) {})
	s.Every(time.Hour).Run(func(context.Context) {})
	assert.Equal(t, []string{"limiter.sweep (every 1m0s)", "task-2 (every 1h0m0s)"}, s.List())
}
