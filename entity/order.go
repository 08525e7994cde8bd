package entity

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderCompleted      OrderStatus = "completed"
	OrderCancelled      OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Order is an immutable snapshot of a priced cart. After creation only the
// status machines, the timeline and a few staff-editable fields may change.
type Order struct {
	gorm.Model
	OrderNumber string `gorm:"uniqueIndex;not null" json:"orderNumber"`

	UserID uint `gorm:"index;not null" json:"userId"`
	User   User `json:"-"`

	Items []OrderItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`

	Subtotal    int64 `json:"subtotal"`
	Tax         int64 `json:"tax"`
	Tip         int64 `json:"tip"`
	DeliveryFee int64 `json:"deliveryFee"`
	Discount    int64 `json:"discount"`
	Total       int64 `json:"total"`

	Status        OrderStatus   `gorm:"index;not null;default:pending" json:"status"`
	PaymentStatus PaymentStatus `gorm:"index;not null;default:pending" json:"paymentStatus"`

	PaymentIntentID    string     `gorm:"index" json:"paymentIntentId,omitempty"`
	PaymentError       string     `json:"-"` // processor detail, never user-facing
	PaymentCompletedAt *time.Time `json:"paymentCompletedAt,omitempty"`
	RefundAmount       int64      `json:"refundAmount,omitempty"`
	RefundedAt         *time.Time `json:"refundedAt,omitempty"`

	OrderType           string   `gorm:"not null" json:"orderType"`
	DeliveryAddress     *Address `gorm:"embedded;embeddedPrefix:delivery_" json:"deliveryAddress,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`

	EstimatedPrepTime int        `json:"estimatedPrepTime"`
	ActualPrepTime    *int       `json:"actualPrepTime,omitempty"`
	ScheduledFor      *time.Time `json:"scheduledFor,omitempty"`

	AssignedToStaffID *uint `gorm:"index" json:"assignedToStaffId,omitempty"`
	AssignedToStaff   *User `json:"-"`

	LoyaltyPointsEarned int `json:"loyaltyPointsEarned"`
	LoyaltyPointsUsed   int `json:"loyaltyPointsUsed"`

	Rating *OrderRating `gorm:"embedded;embeddedPrefix:rating_" json:"rating,omitempty"`

	Timeline []OrderTimelineEntry `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"timeline"`
}

// OrderRating is one-time customer feedback, allowed post-completion.
// Re-rating overwrites the previous values.
type OrderRating struct {
	Overall  int       `json:"overall"`
	Food     int       `json:"food"`
	Service  int       `json:"service"`
	Delivery *int      `json:"delivery,omitempty"`
	RatedAt  time.Time `json:"ratedAt"`
}

// OrderTimelineEntry is the append-only audit log row for a status change.
type OrderTimelineEntry struct {
	gorm.Model
	OrderID   uint        `gorm:"index" json:"orderId"`
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	StaffID   *uint       `json:"staffId,omitempty"`
	Notes     string      `json:"notes,omitempty"`
}
