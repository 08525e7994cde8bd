package entity

import (
	"gorm.io/gorm"
)

const (
	RoleCustomer     = "customer"
	RoleKitchenStaff = "kitchen_staff"
	RoleAdmin        = "admin"
)

type User struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Password    string `json:"-"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `gorm:"not null;default:customer" json:"role"`
	IsActive    bool   `gorm:"not null;default:true" json:"isActive"`

	// preload only when a detail endpoint needs them
	Orders         []Order         `json:"-"`
	LoyaltyAccount *LoyaltyAccount `json:"-"`
}
