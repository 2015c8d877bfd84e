// Package requests holds the JSON bodies accepted by the API. The same types
// are used by the cart checkout client so both sides share one contract.
package requests

// MaxLineQuantity caps the units of one product in a single order, counting
// repeated lines for the same product together.
const MaxLineQuantity = 10000

// OrderLine is one entry of a cart snapshot. Price is what the shopper saw;
// it is carried for display and logging only and never used for totals.
type OrderLine struct {
	ProductID uint   `json:"productId" validate:"gte=1"`
	Quantity  int    `json:"quantity"  validate:"gte=1,lte=10000"`
	Price     *int64 `json:"price,omitempty"`
}

// CreateOrder is the checkout submission.
type CreateOrder struct {
	CustomerName  string      `json:"customerName"  validate:"required,min=2,max=255"`
	Email         string      `json:"email"         validate:"required,email"`
	Phone         string      `json:"phone"         validate:"required,min=7,max=20"`
	Address       string      `json:"address"       validate:"required,min=5"`
	City          string      `json:"city"          validate:"required"`
	State         string      `json:"state"         validate:"required"`
	PostalCode    string      `json:"postalCode"    validate:"required,min=4,max=10"`
	PaymentMethod string      `json:"paymentMethod" validate:"required,oneof=cash card upi netbanking"`
	Items         []OrderLine `json:"items"         validate:"required,min=1,dive"`
}

type UpdateOrderStatus struct {
	Status string `json:"status" validate:"required"`
}

// Quote asks the server to price a snapshot without placing an order.
type Quote struct {
	Items []OrderLine `json:"items" validate:"required,min=1,dive"`
}
