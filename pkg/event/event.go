// Package event provides a small in-process event dispatcher.
//
// A Bus is created at boot and handed to whatever publishes or listens:
//
//	bus := event.New()
//	bus.Listen("order.created", func(ctx context.Context, p any) { ... })
//	bus.Fire(ctx, "order.created", order)
//
// Listeners run in registration order. A panicking listener is logged and
// does not stop the others.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Handler is a function that receives an event payload.
type Handler func(ctx context.Context, payload any)

// Bus maps event names to listeners. The zero value is not usable; a nil
// *Bus silently drops events.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func New() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Fire dispatches an event synchronously to all registered listeners.
func (b *Bus) Fire(ctx context.Context, event string, payload any) {
	for _, h := range b.snapshot(event) {
		b.call(ctx, event, h, payload)
	}
}

// FireAsync dispatches the event to all listeners concurrently and returns
// immediately. Use Wait to block until they finish.
func (b *Bus) FireAsync(ctx context.Context, event string, payload any) {
	// Detach from request cancellation; the request is likely over by the
	// time a slow listener runs.
	ctx = context.WithoutCancel(ctx)
	for _, h := range b.snapshot(event) {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			b.call(ctx, event, h, payload)
		}(h)
	}
}

// Wait blocks until every FireAsync listener has returned.
func (b *Bus) Wait() {
	if b != nil {
		b.wg.Wait()
	}
}

// Flush removes all listeners (useful in tests).
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

func (b *Bus) snapshot(event string) []Handler {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	return hs
}

func (b *Bus) call(ctx context.Context, event string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", event, "panic", fmt.Sprint(r))
		}
	}()
	h(ctx, payload)
}
