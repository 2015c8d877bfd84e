package services

import "github.com/shashiranjanraj/storefront/app/models"

// Event names published on the bus by OrderService.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventCatalogChanged     = "catalog.changed"
)

// OrderCreated is the payload of EventOrderCreated.
type OrderCreated struct {
	Order models.Order
}

// OrderStatusChanged is the payload of EventOrderStatusChanged.
type OrderStatusChanged struct {
	Order models.Order
	From  models.OrderStatus
}
