// Package queue runs background jobs through a pluggable driver (in-memory
// channel or Redis list).
//
// Usage:
//
//	type SendConfirmation struct{ OrderID uint }
//	func (j *SendConfirmation) Handle(ctx context.Context) error { ... }
//
//	q := queue.New(queue.NewMemoryDriver(), queue.WithMaxRetry(3))
//	q.Register("orders.confirmation", func() queue.Job { return &SendConfirmation{} })
//	q.Start(ctx, 2)
//	q.Dispatch(ctx, &SendConfirmation{OrderID: 7})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// Job is the interface every queued job must satisfy.
type Job interface {
	// Handle executes the job. Return a non-nil error to signal failure.
	Handle(ctx context.Context) error
}

// Named lets a job choose its registry name. Jobs without it are
// registered under their Go type name (%T).
type Named interface {
	JobName() string
}

// FailedJob holds information about a job that failed.
type FailedJob struct {
	Type     string
	Job      Job
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available or ctx ends. A nil payload
	// with a nil error means "nothing yet, poll again".
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers that schedule delayed jobs natively.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// ------------------- Manager -------------------

// Manager is the central queue hub.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job // type name → constructor
	failed   []FailedJob
	maxRetry int
	backoff  time.Duration
	failedDB *gorm.DB
	wg       sync.WaitGroup
}

type Option func(*Manager)

// WithMaxRetry sets how many attempts a job gets before it is recorded as failed.
func WithMaxRetry(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRetry = n
		}
	}
}

// WithBackoff sets the base delay between attempts; attempt k waits k×d.
func WithBackoff(d time.Duration) Option {
	return func(m *Manager) { m.backoff = d }
}

// WithFailedJobStore persists exhausted jobs to the failed_jobs table.
func WithFailedJobStore(db *gorm.DB) Option {
	return func(m *Manager) { m.failedDB = db }
}

func New(driver Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:   driver,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Register makes a job type available for deserialization by name.
// Call this once at boot for every job type.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

// ------------------- Dispatch -------------------

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch pushes job onto the queue immediately.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	return m.driver.Push(ctx, env)
}

// DispatchAfter pushes job onto the queue after delay. Drivers without
// native scheduling get a timer in this process.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	if d, ok := m.driver.(DelayedDriver); ok {
		return d.PushDelayed(ctx, env, delay)
	}
	ctx = context.WithoutCancel(ctx)
	time.AfterFunc(delay, func() {
		if err := m.driver.Push(ctx, env); err != nil {
			logger.Error("queue: delayed dispatch failed", "error", err)
		}
	})
	return nil
}

func nameOf(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

func encode(job Job) ([]byte, error) {
	typeName := nameOf(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", typeName, err)
	}
	env, err := json.Marshal(envelope{Type: typeName, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return env, nil
}

// ------------------- Worker -------------------

// Start launches n concurrent workers that run until ctx is cancelled.
// Wait blocks until they have all returned.
func (m *Manager) Start(ctx context.Context, n int) {
	if p, ok := m.driver.(interface{ Promote(context.Context) }); ok {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			p.Promote(ctx)
		}()
	}
	for i := 0; i < n; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
}

// Wait blocks until every worker started by Start has stopped.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) work(ctx context.Context) {
	for {
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			continue
		}
		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()

	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.runWithRetry(ctx, job, env.Type)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, typeName string) {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		if err := job.Handle(ctx); err != nil {
			lastErr = err
			logger.Warn("queue: job failed",
				"type", typeName, "attempt", attempt, "error", err)
			if attempt == m.maxRetry {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt) * m.backoff):
			}
			continue
		}
		metrics.RecordQueueJob(typeName, "success", start)
		logger.Debug("queue: job processed", "type", typeName)
		return
	}

	metrics.RecordQueueJob(typeName, "failed", start)
	m.persistFailed(ctx, job, typeName, lastErr, m.maxRetry)
	logger.Error("queue: job exhausted retries", "type", typeName, "error", lastErr)
}

// FailedJobs returns a snapshot of the jobs that failed in this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}
