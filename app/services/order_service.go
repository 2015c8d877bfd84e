package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/pricing"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// ErrIllegalTransition is wrapped by the conflict returned for a status move
// the lifecycle does not allow.
var ErrIllegalTransition = errors.New("illegal status transition")

// StockShortage describes one line that cannot be fulfilled.
type StockShortage struct {
	ProductID uint   `json:"productId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockError lists every short line of a rejected checkout.
type StockError struct {
	Shortages []StockShortage
}

func (e *StockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (#%d): requested %d, available %d", s.Name, s.ProductID, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// OrderService turns cart snapshots into orders and moves orders through
// their lifecycle.
type OrderService struct {
	store  repositories.Store
	events *event.Bus
	policy pricing.Policy
	now    func() time.Time
}

func NewOrderService(store repositories.Store, events *event.Bus) *OrderService {
	return &OrderService{
		store:  store,
		events: events,
		policy: pricing.DefaultPolicy(),
		now:    time.Now,
	}
}

// line is a merged snapshot entry; index is its first position in the
// request so errors point at what the client sent.
type line struct {
	index     int
	productID uint
	quantity  int
	hint      *int64
}

// CreateOrder validates the snapshot, prices it from the live catalog and
// persists a pending order. Stock decrements and the order insert share one
// transaction: any failure leaves storage untouched.
func (s *OrderService) CreateOrder(ctx context.Context, req requests.CreateOrder) (models.Order, error) {
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		metrics.RecordCheckout("invalid", 0)
		return models.Order{}, apperror.Validation(errs)
	}

	lines, err := mergeLines(req.Items)
	if err != nil {
		metrics.RecordCheckout("invalid", 0)
		return models.Order{}, err
	}
	now := s.now()

	var order models.Order
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		products, err := resolveProducts(ctx, tx, lines)
		if err != nil {
			return err
		}
		if err := checkStock(lines, products); err != nil {
			return err
		}

		items := make([]models.OrderItem, len(lines))
		var total int64
		for i, l := range lines {
			p := products[i]
			unit := p.EffectivePrice()
			if l.hint != nil && *l.hint != unit {
				logger.WithCtx(ctx).Info("checkout: client price ignored",
					"product_id", p.ID, "client_price", *l.hint, "price", unit)
			}
			if err := tx.Products().DecrementStock(ctx, p.ID, l.quantity); err != nil {
				if errors.Is(err, repositories.ErrInsufficientStock) {
					// Lost a race with another checkout after the read.
					fresh, gerr := tx.Products().Get(ctx, p.ID)
					if gerr != nil {
						return gerr
					}
					return stockConflict([]line{l}, []models.Product{fresh})
				}
				return err
			}
			items[i] = models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				UnitPrice: unit,
				Quantity:  l.quantity,
				Image:     p.Image,
			}
			total += items[i].LineTotal()
		}

		order = models.Order{
			CustomerName:  strings.TrimSpace(req.CustomerName),
			Email:         strings.TrimSpace(req.Email),
			Phone:         strings.TrimSpace(req.Phone),
			Address:       strings.TrimSpace(req.Address),
			City:          strings.TrimSpace(req.City),
			State:         strings.TrimSpace(req.State),
			PostalCode:    strings.TrimSpace(req.PostalCode),
			Items:         items,
			TotalAmount:   total,
			TaxAmount:     s.policy.Tax(total),
			ShippingFee:   s.policy.Shipping(total),
			Status:        models.OrderStatusPending,
			PaymentMethod: models.PaymentMethod(req.PaymentMethod),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.Orders().Create(ctx, &order)
	})
	if err != nil {
		return models.Order{}, s.checkoutFailed(ctx, err)
	}

	metrics.RecordCheckout("created", order.TotalAmount)
	logger.WithCtx(ctx).Info("order created", "order_id", order.ID, "total", order.TotalAmount, "lines", len(order.Items))
	s.events.Fire(ctx, EventOrderCreated, OrderCreated{Order: order.Clone()})
	return order, nil
}

func (s *OrderService) checkoutFailed(ctx context.Context, err error) error {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		metrics.RecordCheckout("invalid", 0)
		return err
	case apperror.KindConflict:
		metrics.RecordCheckout("out_of_stock", 0)
		logger.WithCtx(ctx).Warn("checkout rejected", "error", err)
		return err
	}
	metrics.RecordCheckout("error", 0)
	logger.WithCtx(ctx).Error("checkout failed", "error", err)
	return apperror.Internal("could not create order", err)
}

// Quote prices a snapshot against the live catalog without reserving stock.
// Unknown products are rejected the same way CreateOrder rejects them.
func (s *OrderService) Quote(ctx context.Context, req requests.Quote) (pricing.Totals, error) {
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		return pricing.Totals{}, apperror.Validation(errs)
	}

	lines, err := mergeLines(req.Items)
	if err != nil {
		return pricing.Totals{}, err
	}
	products, err := resolveProducts(ctx, s.store, lines)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			return pricing.Totals{}, apperror.Internal("could not price cart", err)
		}
		return pricing.Totals{}, err
	}

	priced := make([]pricing.Line, len(lines))
	for i, l := range lines {
		priced[i] = pricing.Line{Price: products[i].Price, SalePrice: products[i].SalePrice, Quantity: l.quantity}
	}
	return s.policy.Compute(priced), nil
}

// UpdateOrderStatus applies an admin status change.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, status string) (models.Order, error) {
	next, ok := models.ParseOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !ok {
		names := make([]string, 0, 5)
		for _, st := range models.OrderStatuses() {
			names = append(names, string(st))
		}
		return models.Order{}, apperror.InvalidField("status",
			fmt.Sprintf("The selected status is invalid (allowed: %s).", strings.Join(names, ", ")))
	}

	var from models.OrderStatus
	order, err := s.store.Orders().Update(ctx, id, func(o *models.Order) error {
		if !o.Status.CanTransitionTo(next) {
			return apperror.Conflict(fmt.Sprintf("order cannot move from %s to %s", o.Status, next), ErrIllegalTransition)
		}
		from = o.Status
		o.Status = next
		o.UpdatedAt = s.now()
		return nil
	})
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return models.Order{}, apperror.NotFound("order", id)
	case apperror.KindOf(err) == apperror.KindConflict:
		return models.Order{}, err
	case err != nil:
		return models.Order{}, apperror.Internal("could not update order", err)
	}

	metrics.RecordTransition(string(from), string(next))
	logger.WithCtx(ctx).Info("order status changed", "order_id", id, "from", from, "to", next)
	s.events.Fire(ctx, EventOrderStatusChanged, OrderStatusChanged{Order: order.Clone(), From: from})
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (models.Order, error) {
	o, err := s.store.Orders().Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Order{}, apperror.NotFound("order", id)
	}
	if err != nil {
		return models.Order{}, apperror.Internal("could not load order", err)
	}
	return o, nil
}

// ListOrders returns orders newest first. An empty status lists all.
func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	var st models.OrderStatus
	if status != "" {
		var ok bool
		if st, ok = models.ParseOrderStatus(strings.ToLower(status)); !ok {
			return nil, apperror.InvalidField("status", "The selected status is invalid.")
		}
	}
	orders, err := s.store.Orders().ListByStatus(ctx, st)
	if err != nil {
		return nil, apperror.Internal("could not list orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// mergeLines folds repeated product ids into one line so stock is checked
// against the combined quantity. A combined quantity above
// requests.MaxLineQuantity is a validation error on the first such line.
func mergeLines(items []requests.OrderLine) ([]line, error) {
	var out []line
	pos := map[uint]int{}
	for i, it := range items {
		if it.Quantity < 1 || it.Quantity > requests.MaxLineQuantity {
			return nil, apperror.InvalidField(fmt.Sprintf("items[%d].quantity", i),
				fmt.Sprintf("The items[%d].quantity must be between 1 and %d.", i, requests.MaxLineQuantity))
		}
		if j, ok := pos[it.ProductID]; ok {
			if out[j].quantity > requests.MaxLineQuantity-it.Quantity {
				return nil, apperror.InvalidField(fmt.Sprintf("items[%d].quantity", out[j].index),
					fmt.Sprintf("The combined quantity for product %d must not be greater than %d.", it.ProductID, requests.MaxLineQuantity))
			}
			out[j].quantity += it.Quantity
			continue
		}
		pos[it.ProductID] = len(out)
		out = append(out, line{index: i, productID: it.ProductID, quantity: it.Quantity, hint: it.Price})
	}
	return out, nil
}

// resolveProducts loads every line's product. Missing and inactive products
// are reported together as one validation error.
func resolveProducts(ctx context.Context, store repositories.Store, lines []line) ([]models.Product, error) {
	products := make([]models.Product, len(lines))
	missing := map[string]string{}
	for i, l := range lines {
		p, err := store.Products().Get(ctx, l.productID)
		switch {
		case errors.Is(err, repositories.ErrNotFound), err == nil && !p.Active:
			missing[fmt.Sprintf("items[%d].productId", l.index)] =
				fmt.Sprintf("Product %d does not exist or is unavailable.", l.productID)
			continue
		case err != nil:
			return nil, err
		}
		products[i] = p
	}
	if len(missing) > 0 {
		return nil, apperror.Validation(missing)
	}
	return products, nil
}

func checkStock(lines []line, products []models.Product) error {
	var shortLines []line
	var short []models.Product
	for i, l := range lines {
		if products[i].Stock < l.quantity {
			shortLines = append(shortLines, l)
			short = append(short, products[i])
		}
	}
	if len(short) == 0 {
		return nil
	}
	return stockConflict(shortLines, short)
}

func stockConflict(lines []line, products []models.Product) error {
	se := &StockError{}
	fields := map[string]string{}
	for i, l := range lines {
		p := products[i]
		se.Shortages = append(se.Shortages, StockShortage{
			ProductID: l.productID,
			Name:      p.Name,
			Requested: l.quantity,
			Available: p.Stock,
		})
		fields[fmt.Sprintf("items[%d].quantity", l.index)] =
			fmt.Sprintf("Only %d of %s left in stock.", p.Stock, p.Name)
	}
	e := apperror.Conflict("insufficient stock", se)
	e.Fields = fields
	return e
}
