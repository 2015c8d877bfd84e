// Package schedule runs recurring background tasks.
//
//	s := schedule.New()
//	s.Every(time.Minute).Name("limiter.sweep").Run(sweep)
//	s.Every(time.Hour).Name("stock.low").WithoutOverlapping().Run(report)
//	s.Every(24 * time.Hour).Name("orders.export").Delayed().Run(export)
//	go s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Task is one run of a scheduled job. ctx ends when the scheduler stops.
type Task func(ctx context.Context)

type entry struct {
	id        string
	interval  time.Duration
	task      Task
	noOverlap bool
	delayed   bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler dispatches due tasks on every tick.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	wg      sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTick sets how often due tasks are checked (default one second).
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{tick: time.Second}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule is a builder for one entry; Run registers it.
type Schedule struct {
	s *Scheduler
	e *entry
}

// Every starts an entry that runs once immediately and then every d.
func (s *Scheduler) Every(d time.Duration) *Schedule {
	return &Schedule{s: s, e: &entry{interval: d}}
}

// WithoutOverlapping skips a run while the previous one is still going.
func (b *Schedule) WithoutOverlapping() *Schedule {
	b.e.noOverlap = true
	return b
}

// Delayed waits one full interval before the first run.
func (b *Schedule) Delayed() *Schedule {
	b.e.delayed = true
	return b
}

// Name labels the entry in logs and List.
func (b *Schedule) Name(id string) *Schedule {
	b.e.id = id
	return b
}

func (b *Schedule) Run(fn Task) {
	b.e.task = fn
	if b.e.delayed {
		b.e.lastRun = time.Now()
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// List returns the registered entry names with their intervals.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = fmt.Sprintf("%s (every %s)", e.id, e.interval)
	}
	return out
}

// ─── Loop ─────────────────────────────────────────────────────────────────────

// Start dispatches due tasks until ctx ends, then waits for running tasks to
// return.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Info("schedule: started", "tasks", len(s.List()))
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.dispatchDue(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: stopped")
			return
		case now := <-ticker.C:
			s.dispatchDue(ctx, now)
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range current {
		s.dispatch(ctx, e, now)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.interval {
		e.mu.Unlock()
		return
	}
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping run", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()
		logger.Debug("schedule: running", "id", e.id)
		e.task(ctx)
	}()
}
