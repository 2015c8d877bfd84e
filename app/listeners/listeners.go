// Package listeners connects order events to their side effects. Every
// listener runs synchronously inside Fire, after the order has committed, so
// none of them may block; slow work is handed to the queue.
package listeners

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/audit"
	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

// Publisher pushes an event to live subscribers (the admin websocket feed).
type Publisher interface {
	Publish(eventType string, data any)
}

// Invalidator drops cached catalog reads.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Deps are the collaborators listeners act on. Nil fields are skipped.
type Deps struct {
	Queue   *queue.Manager
	Audit   audit.Sink
	Feed    Publisher
	Catalog Invalidator
}

// Register subscribes the storefront listeners on bus.
func Register(bus *event.Bus, d Deps) {
	bus.Listen(services.EventOrderCreated, func(ctx context.Context, payload any) {
		e, ok := payload.(services.OrderCreated)
		if !ok {
			return
		}
		o := e.Order

		// Stock moved, so cached listings are stale.
		if d.Catalog != nil {
			d.Catalog.Invalidate(ctx)
		}
		if d.Audit != nil {
			d.Audit.Record(ctx, audit.Entry{
				OrderID: o.ID, Action: audit.ActionCreated, To: string(o.Status),
				Amount: o.TotalAmount, Email: o.Email, At: o.CreatedAt,
			})
		}
		if d.Feed != nil {
			d.Feed.Publish(services.EventOrderCreated, Summarize(o))
		}
		if d.Queue != nil {
			if err := d.Queue.Dispatch(ctx, jobs.NewOrderConfirmation(o.ID)); err != nil {
				logger.WithCtx(ctx).Error("listeners: queue confirmation", "order_id", o.ID, "error", err)
			}
		}
	})

	bus.Listen(services.EventOrderStatusChanged, func(ctx context.Context, payload any) {
		e, ok := payload.(services.OrderStatusChanged)
		if !ok {
			return
		}
		o := e.Order

		if d.Audit != nil {
			d.Audit.Record(ctx, audit.Entry{
				OrderID: o.ID, Action: audit.ActionStatusChanged,
				From: string(e.From), To: string(o.Status),
				Amount: o.TotalAmount, At: o.UpdatedAt,
			})
		}
		if d.Feed != nil {
			s := Summarize(o)
			s.From = string(e.From)
			d.Feed.Publish(services.EventOrderStatusChanged, s)
		}
	})

	bus.Listen(services.EventCatalogChanged, func(ctx context.Context, payload any) {
		if d.Feed != nil {
			d.Feed.Publish(services.EventCatalogChanged, map[string]any{"change": payload})
		}
	})
}

// OrderSummary is what the admin feed shows for an order event. Contact
// details other than the name are left out.
type OrderSummary struct {
	ID           uint   `json:"id"`
	CustomerName string `json:"customerName"`
	Status       string `json:"status"`
	From         string `json:"from,omitempty"`
	TotalAmount  int64  `json:"totalAmount"`
	ItemCount    int    `json:"itemCount"`
}

func Summarize(o models.Order) OrderSummary {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return OrderSummary{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Status:       string(o.Status),
		TotalAmount:  o.TotalAmount,
		ItemCount:    n,
	}
}
