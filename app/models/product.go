package models

import (
	"time"

	"github.com/shashiranjanraj/storefront/pkg/pricing"
)

// Product is a sellable catalog entry. Prices are minor currency units.
type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"size:255;not null;index"   json:"name"`
	Description string    `gorm:"type:text"                 json:"description"`
	Price       int64     `gorm:"not null"                  json:"price"`
	SalePrice   *int64    `json:"salePrice,omitempty"`
	Stock       int       `gorm:"not null;default:0"        json:"stock"`
	CategoryID  *uint     `gorm:"index"                     json:"categoryId,omitempty"`
	Image       string    `gorm:"size:512"                  json:"image"`
	Featured    bool      `gorm:"not null;index"            json:"featured"`
	Active      bool      `gorm:"not null;index"            json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EffectivePrice is the unit price a shopper is charged right now.
func (p Product) EffectivePrice() int64 {
	return pricing.EffectivePrice(p.Price, p.SalePrice)
}

// OnSale reports whether SalePrice is a real discount.
func (p Product) OnSale() bool {
	return p.EffectivePrice() < p.Price
}

// Clone returns a deep copy; pointer fields are not shared.
func (p Product) Clone() Product {
	if p.SalePrice != nil {
		v := *p.SalePrice
		p.SalePrice = &v
	}
	if p.CategoryID != nil {
		v := *p.CategoryID
		p.CategoryID = &v
	}
	return p
}
