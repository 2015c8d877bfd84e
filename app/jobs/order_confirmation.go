// Package jobs holds the background work queued by the storefront.
package jobs

import (
	"context"
	"fmt"
	"html/template"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/pricing"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

const OrderConfirmationName = "orders.confirmation"

var confirmationTmpl = template.Must(template.New("order_confirmation").Funcs(template.FuncMap{
	"money": pricing.Format,
}).Parse(`<h1>Thank you, {{.CustomerName}}!</h1>
<p>We received order #{{.ID}} and will let you know when it ships.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}} × {{money .UnitPrice}}</td><td>{{money .LineTotal}}</td></tr>
{{end}}</table>
<p>Items: {{money .TotalAmount}}<br>Tax: {{money .TaxAmount}}<br>Shipping: {{money .ShippingFee}}</p>
<p><strong>Amount due: {{money .AmountDue}}</strong> ({{.PaymentMethod}})</p>
<p>Shipping to {{.Address}}, {{.City}}, {{.State}} {{.PostalCode}}</p>
`))

// OrderConfirmation emails the customer a summary of a newly created order.
// Only OrderID is serialized; the order is re-read when the job runs.
type OrderConfirmation struct {
	OrderID uint `json:"orderId"`

	orders repositories.OrderRepository
	mailer mail.Mailer
}

func (j *OrderConfirmation) JobName() string { return OrderConfirmationName }

func (j *OrderConfirmation) Handle(ctx context.Context) error {
	order, err := j.orders.Get(ctx, j.OrderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", j.OrderID, err)
	}
	msg, err := ConfirmationMessage(order)
	if err != nil {
		return err
	}
	return j.mailer.Send(ctx, msg)
}

// ConfirmationMessage renders the email for order.
func ConfirmationMessage(order models.Order) (mail.Message, error) {
	body, err := mail.Render(confirmationTmpl, order)
	if err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		To:      []string{order.Email},
		Subject: fmt.Sprintf("Order #%d received", order.ID),
		Body:    body,
		HTML:    true,
	}, nil
}

// Register adds every storefront job to q.
func Register(q *queue.Manager, orders repositories.OrderRepository, mailer mail.Mailer) {
	q.Register(OrderConfirmationName, func() queue.Job {
		return &OrderConfirmation{orders: orders, mailer: mailer}
	})
}

// NewOrderConfirmation builds a job ready to dispatch.
func NewOrderConfirmation(orderID uint) *OrderConfirmation {
	return &OrderConfirmation{OrderID: orderID}
}
