package models

// Category groups products. Slug is unique and URL-safe.
type Category struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string `gorm:"size:255;not null"        json:"name"`
	Slug  string `gorm:"size:255;uniqueIndex"     json:"slug"`
	Image string `gorm:"size:512"                 json:"image"`
}
