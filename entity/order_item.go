package entity

import (
	"gorm.io/gorm"
)

// OrderItem mirrors CartItem but is frozen at order creation.
type OrderItem struct {
	gorm.Model
	OrderID uint  `json:"orderId"`
	Order   Order `json:"-"`

	MenuItemID uint     `json:"menuItemId"`
	MenuItem   MenuItem `json:"-"`

	Name      string `json:"name"`
	BasePrice int64  `json:"basePrice"`

	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`

	ItemPrice int64 `json:"itemPrice"`
	Subtotal  int64 `json:"subtotal"`

	Selections []OrderItemSelection `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"customizations"`
}

type OrderItemSelection struct {
	gorm.Model
	OrderItemID uint      `json:"orderItemId"`
	OrderItem   OrderItem `json:"-"`

	CustomizationID   uint   `json:"customizationId"`
	CustomizationName string `json:"customizationName"`
	OptionID          uint   `json:"optionId"`
	OptionName        string `json:"optionName"`
	PriceModifier     int64  `json:"priceModifier"`
}
