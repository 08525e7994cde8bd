package entity

import (
	"time"

	"gorm.io/gorm"
)

const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
	OrderTypeDineIn   = "dine-in"
)

// Cart is owned by exactly one of UserID / SessionID, never both. It is
// ephemeral: cleared after checkout and swept once ExpiresAt passes.
type Cart struct {
	gorm.Model
	UserID    *uint  `gorm:"uniqueIndex" json:"userId,omitempty"`
	User      *User  `json:"-"`
	SessionID string `gorm:"index" json:"sessionId,omitempty"`

	OrderType           string   `gorm:"not null;default:pickup" json:"orderType"`
	DeliveryAddress     *Address `gorm:"embedded;embeddedPrefix:delivery_" json:"deliveryAddress,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`

	Subtotal          int64 `json:"subtotal"`
	Tax               int64 `json:"tax"`
	DeliveryFee       int64 `json:"deliveryFee"`
	Discount          int64 `json:"discount"`
	Total             int64 `json:"total"`
	EstimatedPrepTime int   `json:"estimatedPrepTime"`

	// Version guards the read-modify-write cycle: saves go through a
	// compare-and-swap on this column and retry on conflict.
	Version   uint      `gorm:"not null;default:0" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`

	Items []CartItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

type CartItem struct {
	gorm.Model
	CartID uint `json:"cartId"`
	Cart   Cart `json:"-"`

	MenuItemID uint     `json:"menuItemId"`
	MenuItem   MenuItem `json:"-"`

	// name and basePrice are snapshots taken at add-time
	Name      string `json:"name"`
	BasePrice int64  `json:"basePrice"`

	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`

	ItemPrice int64 `json:"itemPrice"` // basePrice + sum of option modifiers
	Subtotal  int64 `json:"subtotal"`  // itemPrice * quantity

	Selections []CartItemSelection `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"customizations"`
}

type CartItemSelection struct {
	gorm.Model
	CartItemID uint     `json:"cartItemId"`
	CartItem   CartItem `json:"-"`

	CustomizationID   uint   `json:"customizationId"`
	CustomizationName string `json:"customizationName"`
	OptionID          uint   `json:"optionId"`
	OptionName        string `json:"optionName"`
	PriceModifier     int64  `json:"priceModifier"`
}
