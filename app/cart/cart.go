// Package cart is the shopper-side cart: a list of product lines with
// quantities, the derived totals, and persistence to a Storage under a fixed
// key. A Cart is an explicit value handed to whoever needs it; nothing here
// is global.
//
//	c, err := cart.New(ctx, cart.NewFileStorage(".storefront-cart.json"))
//	err = c.AddItem(ctx, product, 2)
//	totals := c.Totals()
//
// Every mutation writes the whole cart back to storage before returning.
// On load each stored line is validated on its own and invalid lines are
// dropped, so a cart written by an older version never fails to open.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/pricing"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// StorageKey is where the cart array is persisted.
const StorageKey = "cart"

// ErrItemNotInCart is returned by UpdateQuantity for a product with no line.
var ErrItemNotInCart = errors.New("cart: item not in cart")

// Item is one cart line. Price and SalePrice echo what the shopper saw when
// adding the product; they drive the displayed totals but the server
// re-prices every line at checkout.
type Item struct {
	ProductID uint   `json:"productId" validate:"gte=1"`
	Name      string `json:"name"      validate:"required"`
	Price     int64  `json:"price"     validate:"gt=0"`
	SalePrice *int64 `json:"salePrice,omitempty" validate:"omitempty,gte=0"`
	Image     string `json:"image,omitempty"`
	Quantity  int    `json:"quantity"  validate:"gte=1"`
}

// UnitPrice is the effective price of one unit.
func (i Item) UnitPrice() int64 { return pricing.EffectivePrice(i.Price, i.SalePrice) }

// LineTotal is UnitPrice × Quantity.
func (i Item) LineTotal() int64 { return i.UnitPrice() * int64(i.Quantity) }

func (i Item) line() pricing.Line {
	return pricing.Line{Price: i.Price, SalePrice: i.SalePrice, Quantity: i.Quantity}
}

func (i Item) clone() Item {
	if i.SalePrice != nil {
		v := *i.SalePrice
		i.SalePrice = &v
	}
	return i
}

// Cart is safe for concurrent use.
type Cart struct {
	mu       sync.Mutex
	items    []Item
	store    Storage
	policy   pricing.Policy
	onReveal func()
}

type Option func(*Cart)

// WithPolicy overrides the tax and shipping rules (default pricing.DefaultPolicy).
func WithPolicy(p pricing.Policy) Option {
	return func(c *Cart) { c.policy = p }
}

// WithRevealHook registers fn to run after every AddItem, e.g. to open a
// cart drawer. It is called without the cart lock held.
func WithRevealHook(fn func()) Option {
	return func(c *Cart) { c.onReveal = fn }
}

// New loads the cart from store. A missing or unreadable value yields an
// empty cart; only a storage failure is returned as an error.
func New(ctx context.Context, store Storage, opts ...Option) (*Cart, error) {
	c := &Cart{store: store, policy: pricing.DefaultPolicy()}
	for _, o := range opts {
		o(c)
	}
	raw, err := store.Load(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("cart: load: %w", err)
	}
	c.items = decodeItems(ctx, raw)
	return c, nil
}

// decodeItems keeps every line that decodes and validates on its own.
func decodeItems(ctx context.Context, raw []byte) []Item {
	if len(raw) == 0 {
		return nil
	}
	var lines []json.RawMessage
	if err := json.Unmarshal(raw, &lines); err != nil {
		logger.WithCtx(ctx).Warn("cart: stored cart is not a list, starting empty", "error", err)
		return nil
	}

	seen := map[uint]bool{}
	items := make([]Item, 0, len(lines))
	for i, l := range lines {
		var it Item
		if err := json.Unmarshal(l, &it); err != nil {
			logger.WithCtx(ctx).Debug("cart: dropped undecodable line", "index", i, "error", err)
			continue
		}
		if errs := validate.Struct(it); validate.HasErrors(errs) {
			logger.WithCtx(ctx).Debug("cart: dropped invalid line", "index", i, "errors", errs)
			continue
		}
		if seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		items = append(items, it)
	}
	return items
}

// ─── Mutations ────────────────────────────────────────────────────────────────

// AddItem adds quantity of product, merging into an existing line. A new
// line starts at quantity 1 or more.
func (c *Cart) AddItem(ctx context.Context, p models.Product, quantity int) error {
	c.mu.Lock()
	if i := c.index(p.ID); i >= 0 {
		c.items[i].Quantity += quantity
		if c.items[i].Quantity < 1 {
			c.items[i].Quantity = 1
		}
	} else {
		it := Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Quantity:  max(quantity, 1),
		}
		if p.SalePrice != nil {
			v := *p.SalePrice
			it.SalePrice = &v
		}
		c.items = append(c.items, it)
	}
	err := c.persist(ctx)
	c.mu.Unlock()

	if c.onReveal != nil {
		c.onReveal()
	}
	return err
}

// UpdateQuantity sets a line's quantity. Below 1 removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, productID uint, quantity int) error {
	if quantity < 1 {
		return c.RemoveItem(ctx, productID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotInCart
	}
	c.items[i].Quantity = quantity
	return c.persist(ctx)
}

// RemoveItem drops a line. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(ctx context.Context, productID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(productID)
	if i < 0 {
		return nil
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return c.persist(ctx)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return c.persist(ctx)
}

func (c *Cart) index(productID uint) int {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// persist must be called with c.mu held.
func (c *Cart) persist(ctx context.Context) error {
	items := c.items
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cart: encode: %w", err)
	}
	if err := c.store.Save(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("cart: save: %w", err)
	}
	return nil
}

// ─── Reads ────────────────────────────────────────────────────────────────────

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.clone()
	}
	return out
}

// Totals recomputes subtotal, tax, shipping and total from the lines.
func (c *Cart) Totals() pricing.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]pricing.Line, len(c.items))
	for i, it := range c.items {
		lines[i] = it.line()
	}
	return c.policy.Compute(lines)
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// Snapshot is the checkout payload: product ids, quantities and the prices
// the shopper saw.
func (c *Cart) Snapshot() []requests.OrderLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]requests.OrderLine, len(c.items))
	for i, it := range c.items {
		seen := it.UnitPrice()
		out[i] = requests.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, Price: &seen}
	}
	return out
}
