package models

import (
	"time"
)

// OrderItem is a frozen copy of a product line at the moment of purchase.
type OrderItem struct {
	ProductID uint   `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

// LineTotal is UnitPrice × Quantity.
func (i OrderItem) LineTotal() int64 { return i.UnitPrice * int64(i.Quantity) }

// PaymentMethod is how the customer intends to pay. No gateway is involved.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetBanking PaymentMethod = "netbanking"
)

// Order is created once per checkout. Items and the amounts never change
// afterwards; only Status moves. TotalAmount is the sum of the line totals;
// tax and shipping are charged on top of it.
type Order struct {
	ID            uint          `gorm:"primaryKey;autoIncrement"   json:"id"`
	CustomerName  string        `gorm:"size:255;not null"          json:"customerName"`
	Email         string        `gorm:"size:255;not null;index"    json:"email"`
	Phone         string        `gorm:"size:50;not null"           json:"phone"`
	Address       string        `gorm:"type:text;not null"         json:"address"`
	City          string        `gorm:"size:255;not null"          json:"city"`
	State         string        `gorm:"size:255;not null"          json:"state"`
	PostalCode    string        `gorm:"size:20;not null"           json:"postalCode"`
	Items         []OrderItem   `gorm:"serializer:json;type:text"  json:"items"`
	TotalAmount   int64         `gorm:"not null"                   json:"totalAmount"`
	TaxAmount     int64         `gorm:"not null;default:0"         json:"taxAmount"`
	ShippingFee   int64         `gorm:"not null;default:0"         json:"shippingFee"`
	Status        OrderStatus   `gorm:"size:20;not null;index"     json:"status"`
	PaymentMethod PaymentMethod `gorm:"size:20;not null"           json:"paymentMethod"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// AmountDue is what the customer pays: TotalAmount plus tax and shipping.
// It equals the quote total for the same cart at checkout time.
func (o Order) AmountDue() int64 { return o.TotalAmount + o.TaxAmount + o.ShippingFee }

// Clone returns a deep copy so callers cannot mutate a stored snapshot.
func (o Order) Clone() Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	return o
}
