package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User is an account that can log in. Only admins have access to the
// management routes.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	Username     string    `gorm:"uniqueIndex;size:255;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null"           json:"-"` // bcrypt, never serialised
	Role         string    `gorm:"size:50;default:customer"    json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
