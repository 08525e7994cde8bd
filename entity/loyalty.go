package entity

import (
	"time"

	"gorm.io/gorm"
)

type LoyaltyTier string

const (
	TierBronze   LoyaltyTier = "bronze"
	TierSilver   LoyaltyTier = "silver"
	TierGold     LoyaltyTier = "gold"
	TierPlatinum LoyaltyTier = "platinum"
)

const (
	LoyaltyEarned   = "earned"
	LoyaltyRedeemed = "redeemed"
	LoyaltyExpired  = "expired"
	LoyaltyBonus    = "bonus"
)

// LoyaltyAccount is created lazily, one per user. TotalPoints always equals
// the signed sum of the transaction log.
type LoyaltyAccount struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null" json:"userId"`
	User   User `json:"-"`

	TotalPoints  int         `json:"totalPoints"`
	PointsEarned int         `json:"pointsEarned"` // lifetime gross, drives tier
	PointsUsed   int         `json:"pointsUsed"`
	Tier         LoyaltyTier `gorm:"not null;default:bronze" json:"tier"`
	TierProgress float64     `json:"tierProgress"`

	Transactions []LoyaltyTransaction `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// LoyaltyTransaction rows are append-only. Points are signed: negative for
// redeemed/expired. Only earned/bonus rows carry ExpiresAt; OffsetApplied
// marks an earned/bonus row whose expiry has already been written out, so
// lazy expiry never offsets the same row twice.
type LoyaltyTransaction struct {
	gorm.Model
	AccountID uint           `gorm:"index" json:"accountId"`
	Account   LoyaltyAccount `json:"-"`

	Type          string     `gorm:"not null" json:"type"`
	Points        int        `gorm:"not null" json:"points"`
	OrderID       *uint      `json:"orderId,omitempty"`
	Description   string     `json:"description"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	OffsetApplied bool       `gorm:"not null;default:false" json:"-"`
}
