package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) messages() []mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mail.Message(nil), o.sent...)
}

func seedOrder(t *testing.T, store repositories.Store) models.Order {
	t.Helper()
	o := models.Order{
		CustomerName: "Asha Rao", Email: "asha@example.com", Phone: "9876543210",
		Address: "12 MG Road", City: "Bengaluru", State: "KA", PostalCode: "560001",
		Items:       []models.OrderItem{{ProductID: 1, Name: "Smart LED Bulb", UnitPrice: 79900, Quantity: 2}},
		TotalAmount: 159800, Status: models.OrderStatusPending, PaymentMethod: models.PaymentUPI,
	}
	require.NoError(t, store.Orders().Create(context.Background(), &o))
	return o
}

func TestConfirmationMessage(t *testing.T) {
	msg, err := ConfirmationMessage(models.Order{
		ID: 7, CustomerName: "Asha", Email: "asha@example.com",
		Items:       []models.OrderItem{{Name: "LED Desk Lamp", UnitPrice: 149900, Quantity: 1}},
		TotalAmount: 149900, TaxAmount: 26982,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"asha@example.com"}, msg.To)
	assert.Equal(t, "Order #7 received", msg.Subject)
	assert.True(t, msg.HTML)
	assert.Contains(t, msg.Body, "LED Desk Lamp")
	assert.Contains(t, msg.Body, "₹1499.00")
	assert.Contains(t, msg.Body, "Amount due: ₹1768.82")
}

func TestOrderConfirmationHandle(t *testing.T) {
	store := repositories.NewMemoryStore()
	order := seedOrder(t, store)
	box := &outbox{}

	job := &OrderConfirmation{OrderID: order.ID, orders: store.Orders(), mailer: box}
	require.NoError(t, job.Handle(context.Background()))
	require.Len(t, box.messages(), 1)
	assert.Contains(t, box.messages()[0].Body, "Smart LED Bulb")

	missing := &OrderConfirmation{OrderID: 999, orders: store.Orders(), mailer: box}
	assert.True(t, errors.Is(missing.Handle(context.Background()), repositories.ErrNotFound))
}

func TestOrderConfirmationThroughQueue(t *testing.T) {
	store := repositories.NewMemoryStore()
	order := seedOrder(t, store)
	box := &outbox{}

	q := queue.New(queue.NewMemoryDriver(), queue.WithBackoff(time.Millisecond))
	Register(q, store.Orders(), box)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() { cancel(); q.Wait() })
	q.Start(ctx, 1)

	require.NoError(t, q.Dispatch(ctx, NewOrderConfirmation(order.ID)))
	assert.Eventually(t, func() bool { return len(box.messages()) == 1 }, time.Second, 5*time.Millisecond)
}
