package entity

import (
	"gorm.io/gorm"
)

const (
	CustomizationSingleSelect = "single_select"
	CustomizationMultiSelect  = "multi_select"
)

// All money fields across the schema are integer cents.
type MenuItem struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	BasePrice   int64  `gorm:"not null" json:"basePrice"`

	CategoryID uint     `json:"categoryId"`
	Category   Category `json:"-"`

	IsActive    bool  `gorm:"not null;default:true" json:"isActive"`
	IsAvailable bool  `gorm:"not null;default:true" json:"isAvailable"`
	SoldCount   int64 `json:"soldCount"`

	Customizations []Customization `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"customizations"`
}

type Customization struct {
	gorm.Model
	MenuItemID uint   `json:"menuItemId"`
	Name       string `json:"name"`
	Type       string `json:"type"` // single_select | multi_select
	Required   bool   `json:"required"`
	MinSelect  int    `json:"minSelect"`
	MaxSelect  int    `json:"maxSelect"`
	SortOrder  int    `json:"sortOrder"`

	Options []CustomizationOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"options"`
}

type CustomizationOption struct {
	gorm.Model
	CustomizationID uint   `json:"customizationId"`
	Name            string `json:"name"`
	PriceModifier   int64  `json:"priceModifier"`
	IsAvailable     bool   `gorm:"not null;default:true" json:"isAvailable"`
	SortOrder       int    `json:"sortOrder"`
}
