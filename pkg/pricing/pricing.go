// Package pricing holds the money rules shared by the cart and the order
// pipeline. All amounts are int64 minor currency units.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/storefront/config"
)

// EffectivePrice returns sale when it is a real discount (0 < sale < price),
// otherwise price.
func EffectivePrice(price int64, sale *int64) int64 {
	if sale != nil && *sale > 0 && *sale < price {
		return *sale
	}
	return price
}

// Line is one priced row of a cart or order.
type Line struct {
	Price     int64
	SalePrice *int64
	Quantity  int
}

// Amount is the effective unit price times quantity.
func (l Line) Amount() int64 {
	return EffectivePrice(l.Price, l.SalePrice) * int64(l.Quantity)
}

// Totals is the computed breakdown of a set of lines.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// Policy carries the store-wide tax and shipping constants.
type Policy struct {
	TaxRate               decimal.Decimal
	ShippingFee           int64
	FreeShippingThreshold int64
}

// DefaultPolicy reads TAX_RATE, SHIPPING_FEE and FREE_SHIPPING_THRESHOLD.
func DefaultPolicy() Policy {
	rate, err := decimal.NewFromString(config.TaxRate())
	if err != nil || rate.IsNegative() {
		rate = decimal.RequireFromString("0.18")
	}
	return Policy{
		TaxRate:               rate,
		ShippingFee:           config.ShippingFee(),
		FreeShippingThreshold: config.FreeShippingThreshold(),
	}
}

// Subtotal sums the effective amount of every line.
func Subtotal(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Amount()
	}
	return sum
}

// Tax rounds subtotal*rate half away from zero to a whole minor unit.
func (p Policy) Tax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).Mul(p.TaxRate).Round(0).IntPart()
}

// Shipping is free for an empty cart or once the threshold is reached.
func (p Policy) Shipping(subtotal int64) int64 {
	if subtotal <= 0 || subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.ShippingFee
}

// Compute derives the full breakdown. It is a pure function of its inputs.
func (p Policy) Compute(lines []Line) Totals {
	sub := Subtotal(lines)
	t := Totals{
		Subtotal: sub,
		Tax:      p.Tax(sub),
		Shipping: p.Shipping(sub),
	}
	t.Total = t.Subtotal + t.Tax + t.Shipping
	return t
}

// Format renders minor units as rupees, e.g. 129900 → "₹1299.00".
func Format(amount int64) string {
	return "₹" + decimal.New(amount, -2).StringFixed(2)
}
