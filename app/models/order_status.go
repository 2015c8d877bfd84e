package models

import "slices"

// OrderStatus is a step in the order lifecycle:
//
//	pending → processing → shipped → delivered
//	pending | processing → cancelled
//
// delivered and cancelled are terminal.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// OrderStatuses lists every known status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	}
}

// ParseOrderStatus maps a wire value to a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	return st, slices.Contains(OrderStatuses(), st)
}

// CanTransitionTo reports whether next is a legal move from s.
// Staying in the same status is not a transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(orderTransitions[s], next)
}

// IsTerminal reports whether no further transitions exist.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}
