package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/audit"
	"github.com/shashiranjanraj/storefront/app/reports"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type OrderController struct {
	orders  *services.OrderService
	trail   audit.Sink
	exports *reports.OrderExporter
}

// NewOrderController wires the order endpoints. trail may be nil, in which
// case the audit endpoint reports an empty history; exports may be nil,
// which disables the export endpoint.
func NewOrderController(orders *services.OrderService, trail audit.Sink, exports *reports.OrderExporter) *OrderController {
	return &OrderController{orders: orders, trail: trail, exports: exports}
}

// Store places an order from a cart snapshot. The service does all
// validation so rejected checkouts are counted in one place.
func (oc *OrderController) Store(c *ctx.Context) {
	var req requests.CreateOrder
	if !c.DecodeJSON(&req) {
		return
	}
	order, err := oc.orders.CreateOrder(c.Context(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(order)
}

// Quote prices a snapshot without placing it.
func (oc *OrderController) Quote(c *ctx.Context) {
	var req requests.Quote
	if !c.DecodeJSON(&req) {
		return
	}
	totals, err := oc.orders.Quote(c.Context(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(totals)
}

func (oc *OrderController) Index(c *ctx.Context) {
	orders, err := oc.orders.ListOrders(c.Context(), c.Query("status"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(orders)
}

func (oc *OrderController) Show(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	order, err := oc.orders.GetOrder(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	var req requests.UpdateOrderStatus
	if !c.BindJSON(&req) {
		return
	}
	order, err := oc.orders.UpdateOrderStatus(c.Context(), id, req.Status)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

// Audit returns the order's recorded history, oldest first.
func (oc *OrderController) Audit(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	if _, err := oc.orders.GetOrder(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	if oc.trail == nil {
		c.Success([]audit.Entry{})
		return
	}
	entries, err := oc.trail.Trail(c.Context(), id)
	if err != nil {
		c.Fail(apperror.Internal("could not load audit trail", err))
		return
	}
	c.Success(entries)
}

// Export writes the orders matching ?status= to the storage disk.
func (oc *OrderController) Export(c *ctx.Context) {
	if oc.exports == nil {
		c.Error(http.StatusNotImplemented, "order exports are not configured")
		return
	}
	exp, err := oc.exports.Export(c.Context(), c.Query("status"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(exp)
}
