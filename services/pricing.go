package services

import (
	"math"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
)

// CustomizationIn is the client-submitted selection shape, shared by cart
// and order item payloads.
type CustomizationIn struct {
	CustomizationID uint       `json:"customizationId" binding:"required"`
	SelectedOptions []OptionIn `json:"selectedOptions"`
}

type OptionIn struct {
	OptionID uint `json:"optionId" binding:"required"`
}

// PriceItem validates the submitted selections against the menu item's
// customization definitions and returns the effective unit price in cents
// plus the priced selection snapshot rows.
//
// Price modifiers may be negative and the result is deliberately not floored
// at zero; stacked discounts can drive an item price below zero.
func PriceItem(menuItem *entity.MenuItem, customizations []CustomizationIn) (int64, []entity.CartItemSelection, error) {
	itemPrice := menuItem.BasePrice
	var selections []entity.CartItemSelection

	for _, in := range customizations {
		def := findCustomization(menuItem, in.CustomizationID)
		if def == nil {
			return 0, nil, apperr.Newf(apperr.KindValidation, "invalid customization: %d", in.CustomizationID)
		}

		if def.Required && len(in.SelectedOptions) == 0 {
			return 0, nil, apperr.Newf(apperr.KindValidation, "customization %q is required", def.Name)
		}
		if def.Type == entity.CustomizationSingleSelect && len(in.SelectedOptions) > 1 {
			return 0, nil, apperr.Newf(apperr.KindValidation, "customization %q allows a single option", def.Name)
		}
		if def.MinSelect > 0 && len(in.SelectedOptions) < def.MinSelect {
			return 0, nil, apperr.Newf(apperr.KindValidation, "customization %q requires at least %d options", def.Name, def.MinSelect)
		}
		if def.MaxSelect > 0 && len(in.SelectedOptions) > def.MaxSelect {
			return 0, nil, apperr.Newf(apperr.KindValidation, "customization %q allows at most %d options", def.Name, def.MaxSelect)
		}

		for _, sel := range in.SelectedOptions {
			opt := findOption(def, sel.OptionID)
			if opt == nil {
				return 0, nil, apperr.Newf(apperr.KindValidation, "invalid customization option: %d", sel.OptionID)
			}
			if !opt.IsAvailable {
				return 0, nil, apperr.Newf(apperr.KindUnavailable, "option %q is not available", opt.Name)
			}

			itemPrice += opt.PriceModifier
			selections = append(selections, entity.CartItemSelection{
				CustomizationID:   def.ID,
				CustomizationName: def.Name,
				OptionID:          opt.ID,
				OptionName:        opt.Name,
				PriceModifier:     opt.PriceModifier,
			})
		}
	}

	return itemPrice, selections, nil
}

func findCustomization(m *entity.MenuItem, id uint) *entity.Customization {
	for i := range m.Customizations {
		if m.Customizations[i].ID == id {
			return &m.Customizations[i]
		}
	}
	return nil
}

func findOption(c *entity.Customization, id uint) *entity.CustomizationOption {
	for i := range c.Options {
		if c.Options[i].ID == id {
			return &c.Options[i]
		}
	}
	return nil
}

// TaxCents rounds subtotal * rate to whole cents.
func TaxCents(subtotal int64, rate float64) int64 {
	return int64(math.Round(float64(subtotal) * rate))
}

// PrepTimeMinutes implements the estimate: max(10, items*5) plus 2 minutes
// per customization, plus an order-type adjustment, capped at 60. An empty
// item list estimates 0.
func PrepTimeMinutes(items []entity.CartItem, orderType string) int {
	if len(items) == 0 {
		return 0
	}

	prep := len(items) * 5
	if prep < 10 {
		prep = 10
	}
	for _, it := range items {
		prep += customizationCount(it.Selections) * 2
	}

	switch orderType {
	case entity.OrderTypeDelivery:
		prep += 20
	case entity.OrderTypeDineIn:
		prep += 5
	}

	if prep > 60 {
		prep = 60
	}
	return prep
}

// customizationCount counts distinct customization groups, not options.
func customizationCount(selections []entity.CartItemSelection) int {
	seen := make(map[uint]bool, len(selections))
	for _, s := range selections {
		seen[s.CustomizationID] = true
	}
	return len(seen)
}
