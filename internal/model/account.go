package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type Account struct {
	ID           string  `gorm:"primaryKey;size:36;not null" json:"id"`
	Name         string  `gorm:"size:128;not null" json:"name"`
	Email        string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone        *string `gorm:"size:32;uniqueIndex" json:"phone,omitempty"` // nullable, unique when present
	PasswordHash string  `gorm:"size:255;not null" json:"-"`
	Role         Role    `gorm:"size:16;index;not null" json:"role"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *Account) HasPhone() bool {
	return a.Phone != nil && *a.Phone != ""
}
