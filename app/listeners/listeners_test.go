package listeners

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/audit"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

type published struct {
	Type string
	Data any
}

type feed struct {
	mu  sync.Mutex
	got []published
}

func (f *feed) Publish(eventType string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, published{eventType, data})
}

type invalidator struct{ calls int }

func (i *invalidator) Invalidate(context.Context) { i.calls++ }

func TestOrderLifecycleSideEffects(t *testing.T) {
	store := repositories.NewMemoryStore()
	p := models.Product{Name: "Smart LED Bulb", Price: 79900, Stock: 5, Active: true}
	require.NoError(t, store.Products().Create(context.Background(), &p))

	driver := queue.NewMemoryDriver()
	trail := audit.NewMemory(100)
	live := &feed{}
	catalog := &invalidator{}

	bus := event.New()
	Register(bus, Deps{Queue: queue.New(driver), Audit: trail, Feed: live, Catalog: catalog})
	svc := services.NewOrderService(store, bus)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, requests.CreateOrder{
		CustomerName: "Asha Rao", Email: "asha@example.com", Phone: "9876543210",
		Address: "12 MG Road", City: "Bengaluru", State: "KA", PostalCode: "560001",
		PaymentMethod: "cash",
		Items:         []requests.OrderLine{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.calls)
	assert.Equal(t, 1, driver.Len(), "confirmation job queued")

	_, err = svc.UpdateOrderStatus(ctx, order.ID, "processing")
	require.NoError(t, err)

	entries, err := trail.Trail(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionCreated, entries[0].Action)
	assert.Equal(t, int64(159800), entries[0].Amount)
	assert.Equal(t, "pending", entries[1].From)
	assert.Equal(t, "processing", entries[1].To)

	require.Len(t, live.got, 2)
	assert.Equal(t, services.EventOrderCreated, live.got[0].Type)
	created := live.got[0].Data.(OrderSummary)
	assert.Equal(t, 2, created.ItemCount)
	changed := live.got[1].Data.(OrderSummary)
	assert.Equal(t, "pending", changed.From)
	assert.Equal(t, "processing", changed.Status)
}

func TestNilDepsAreSkipped(t *testing.T) {
	bus := event.New()
	Register(bus, Deps{})
	assert.NotPanics(t, func() {
		bus.Fire(context.Background(), services.EventOrderCreated, services.OrderCreated{
			Order: models.Order{ID: 1, CreatedAt: time.Now()},
		})
		bus.Fire(context.Background(), services.EventOrderStatusChanged, "wrong payload")
	})
}
