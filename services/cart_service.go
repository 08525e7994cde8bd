package services

import (
	"errors"
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
	"github.com/uchikuch/restaurant-pos-system/repository"

	"gorm.io/gorm"
)

// CartOwner identifies who a cart belongs to: exactly one of UserID and
// SessionID is set.
type CartOwner struct {
	UserID    *uint
	SessionID string
}

func (o CartOwner) valid() bool {
	return (o.UserID != nil) != (o.SessionID != "")
}

type CartService struct {
	DB       *gorm.DB
	CartRepo *repository.CartRepository
	MenuRepo *repository.MenuRepository

	TaxRate     float64
	DeliveryFee int64
	TTL         time.Duration
}

func NewCartService(db *gorm.DB, cr *repository.CartRepository, mr *repository.MenuRepository, taxRate float64, deliveryFee int64, ttl time.Duration) *CartService {
	return &CartService{DB: db, CartRepo: cr, MenuRepo: mr, TaxRate: taxRate, DeliveryFee: deliveryFee, TTL: ttl}
}

type AddItemIn struct {
	MenuItemID          uint              `json:"menuItemId" binding:"required"`
	Quantity            int               `json:"quantity" binding:"required,min=1"`
	Customizations      []CustomizationIn `json:"customizations"`
	SpecialInstructions string            `json:"specialInstructions"`
}

type UpdateItemIn struct {
	Quantity            *int               `json:"quantity"`
	Customizations      *[]CustomizationIn `json:"customizations"`
	SpecialInstructions *string            `json:"specialInstructions"`
}

type UpdateCartSettingsIn struct {
	OrderType           *string         `json:"orderType"`
	DeliveryAddress     *entity.Address `json:"deliveryAddress"`
	SpecialInstructions *string         `json:"specialInstructions"`
}

func (s *CartService) GetOrCreate(owner CartOwner) (*entity.Cart, error) {
	if !owner.valid() {
		return nil, apperr.New(apperr.KindValidation, "either a user or a session must own the cart")
	}

	c, err := s.CartRepo.FindByOwner(owner.UserID, owner.SessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = &entity.Cart{
			UserID:    owner.UserID,
			SessionID: owner.SessionID,
			OrderType: entity.OrderTypePickup,
			ExpiresAt: time.Now().Add(s.TTL),
		}
		if err := s.CartRepo.Create(c); err != nil {
			return nil, err
		}
		return c, nil
	}
	return c, err
}

// mutate runs fn inside a transaction opened with a version compare-and-swap
// on the cart row, so concurrent read-modify-write cycles are serialized.
// On a version conflict the whole cycle reloads and retries.
func (s *CartService) mutate(owner CartOwner, fn func(tx *gorm.DB, cart *entity.Cart) error) (*entity.Cart, error) {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		cart, err := s.GetOrCreate(owner)
		if err != nil {
			return nil, err
		}

		err = s.DB.Transaction(func(tx *gorm.DB) error {
			if err := s.CartRepo.BumpVersion(tx, cart.ID, cart.Version); err != nil {
				return err
			}
			return fn(tx, cart)
		})
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s.CartRepo.GetByID(cart.ID)
	}
	return nil, apperr.New(apperr.KindConflict, "cart was modified concurrently, please retry")
}

func (s *CartService) AddItem(owner CartOwner, in *AddItemIn) (*entity.Cart, error) {
	menuItem, err := s.MenuRepo.GetMenuItem(in.MenuItemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "menu item not found")
	}
	if err != nil {
		return nil, err
	}
	if !menuItem.IsActive || !menuItem.IsAvailable {
		return nil, apperr.Newf(apperr.KindUnavailable, "menu item %q is not available", menuItem.Name)
	}

	itemPrice, selections, err := PriceItem(menuItem, in.Customizations)
	if err != nil {
		return nil, err
	}

	return s.mutate(owner, func(tx *gorm.DB, cart *entity.Cart) error {
		if existing := findIdenticalItem(cart.Items, in.MenuItemID, selections, in.SpecialInstructions); existing != nil {
			existing.Quantity += in.Quantity
			existing.Subtotal = existing.ItemPrice * int64(existing.Quantity)
			if err := s.CartRepo.SaveItem(tx, existing); err != nil {
				return err
			}
		} else {
			item := entity.CartItem{
				CartID:              cart.ID,
				MenuItemID:          menuItem.ID,
				Name:                menuItem.Name,
				BasePrice:           menuItem.BasePrice,
				Quantity:            in.Quantity,
				SpecialInstructions: in.SpecialInstructions,
				ItemPrice:           itemPrice,
				Subtotal:            itemPrice * int64(in.Quantity),
				Selections:          selections,
			}
			if err := s.CartRepo.CreateItem(tx, &item); err != nil {
				return err
			}
			cart.Items = append(cart.Items, item)
		}
		return s.recomputeTotals(tx, cart)
	})
}

func (s *CartService) UpdateItem(owner CartOwner, itemID uint, in *UpdateItemIn) (*entity.Cart, error) {
	return s.mutate(owner, func(tx *gorm.DB, cart *entity.Cart) error {
		item := findItem(cart, itemID)
		if item == nil {
			return apperr.New(apperr.KindNotFound, "cart item not found")
		}

		if in.Quantity != nil {
			if *in.Quantity < 1 {
				return apperr.New(apperr.KindValidation, "quantity must be at least 1")
			}
			item.Quantity = *in.Quantity
		}

		if in.Customizations != nil {
			menuItem, err := s.MenuRepo.GetMenuItem(item.MenuItemID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "menu item not found")
			}
			if err != nil {
				return err
			}
			itemPrice, selections, err := PriceItem(menuItem, *in.Customizations)
			if err != nil {
				return err
			}
			item.ItemPrice = itemPrice
			item.Selections = selections
			if err := s.CartRepo.ReplaceSelections(tx, item.ID, selections); err != nil {
				return err
			}
		}

		if in.SpecialInstructions != nil {
			item.SpecialInstructions = *in.SpecialInstructions
		}

		item.Subtotal = item.ItemPrice * int64(item.Quantity)
		if err := s.CartRepo.SaveItem(tx, item); err != nil {
			return err
		}
		return s.recomputeTotals(tx, cart)
	})
}

func (s *CartService) RemoveItem(owner CartOwner, itemID uint) (*entity.Cart, error) {
	return s.mutate(owner, func(tx *gorm.DB, cart *entity.Cart) error {
		item := findItem(cart, itemID)
		if item == nil {
			return apperr.New(apperr.KindNotFound, "cart item not found")
		}
		if err := s.CartRepo.DeleteItem(tx, item.ID); err != nil {
			return err
		}

		kept := cart.Items[:0]
		for _, it := range cart.Items {
			if it.ID != itemID {
				kept = append(kept, it)
			}
		}
		cart.Items = kept
		return s.recomputeTotals(tx, cart)
	})
}

func (s *CartService) UpdateSettings(owner CartOwner, in *UpdateCartSettingsIn) (*entity.Cart, error) {
	return s.mutate(owner, func(tx *gorm.DB, cart *entity.Cart) error {
		if in.OrderType != nil {
			switch *in.OrderType {
			case entity.OrderTypePickup, entity.OrderTypeDelivery, entity.OrderTypeDineIn:
				cart.OrderType = *in.OrderType
			default:
				return apperr.Newf(apperr.KindValidation, "unknown order type %q", *in.OrderType)
			}
		}
		if in.DeliveryAddress != nil {
			cart.DeliveryAddress = in.DeliveryAddress
		}
		if cart.OrderType == entity.OrderTypeDelivery && cart.DeliveryAddress == nil {
			return apperr.New(apperr.KindValidation, "delivery address is required for delivery orders")
		}
		if in.SpecialInstructions != nil {
			cart.SpecialInstructions = *in.SpecialInstructions
		}

		if err := s.CartRepo.UpdateSettings(tx, cart); err != nil {
			return err
		}
		return s.recomputeTotals(tx, cart)
	})
}

func (s *CartService) Clear(owner CartOwner) (*entity.Cart, error) {
	return s.mutate(owner, func(tx *gorm.DB, cart *entity.Cart) error {
		if err := s.CartRepo.ClearItems(tx, cart.ID); err != nil {
			return err
		}
		cart.Items = nil
		return s.recomputeTotals(tx, cart)
	})
}

func (s *CartService) Delete(owner CartOwner) error {
	if !owner.valid() {
		return apperr.New(apperr.KindValidation, "either a user or a session must own the cart")
	}
	cart, err := s.CartRepo.FindByOwner(owner.UserID, owner.SessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, "cart not found")
	}
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.CartRepo.Delete(tx, cart.ID)
	})
}

// ConvertToOrderDraft turns the user's cart into an order-creation request.
// Guest carts cannot check out. The cart itself is left untouched: the
// caller clears it only after order creation succeeds, so a failure down
// the line never loses the cart.
func (s *CartService) ConvertToOrderDraft(userID uint) (*CreateOrderIn, error) {
	cart, err := s.CartRepo.FindByOwner(&userID, "")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "cart not found")
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "cart is empty")
	}

	items := make([]OrderItemIn, 0, len(cart.Items))
	for _, it := range cart.Items {
		menuItem, err := s.MenuRepo.GetMenuItem(it.MenuItemID)
		if err != nil || !menuItem.IsActive || !menuItem.IsAvailable {
			return nil, apperr.Newf(apperr.KindUnavailable, "menu item %q is no longer available", it.Name)
		}
		items = append(items, OrderItemIn{
			MenuItemID:          it.MenuItemID,
			Quantity:            it.Quantity,
			Customizations:      groupSelections(it.Selections),
			SpecialInstructions: it.SpecialInstructions,
		})
	}

	return &CreateOrderIn{
		Items:               items,
		OrderType:           cart.OrderType,
		DeliveryAddress:     cart.DeliveryAddress,
		SpecialInstructions: cart.SpecialInstructions,
	}, nil
}

// MergeGuestCart folds a guest cart into the user's cart at login. Items
// merge under the usual identity rule.
func (s *CartService) MergeGuestCart(sessionID string, userID uint) error {
	guest, err := s.CartRepo.FindByOwner(nil, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, it := range guest.Items {
		in := AddItemIn{
			MenuItemID:          it.MenuItemID,
			Quantity:            it.Quantity,
			Customizations:      groupSelections(it.Selections),
			SpecialInstructions: it.SpecialInstructions,
		}
		if _, err := s.AddItem(CartOwner{UserID: &userID}, &in); err != nil {
			return err
		}
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.CartRepo.Delete(tx, guest.ID)
	})
}

func (s *CartService) recomputeTotals(tx *gorm.DB, cart *entity.Cart) error {
	var subtotal int64
	for _, it := range cart.Items {
		subtotal += it.Subtotal
	}

	cart.Subtotal = subtotal
	cart.Tax = TaxCents(subtotal, s.TaxRate)
	if cart.OrderType == entity.OrderTypeDelivery {
		cart.DeliveryFee = s.DeliveryFee
	} else {
		cart.DeliveryFee = 0
	}
	cart.Total = cart.Subtotal + cart.Tax + cart.DeliveryFee - cart.Discount
	cart.EstimatedPrepTime = PrepTimeMinutes(cart.Items, cart.OrderType)

	return s.CartRepo.UpdateTotals(tx, cart)
}

func findItem(cart *entity.Cart, itemID uint) *entity.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i]
		}
	}
	return nil
}

// Two cart items are identical when they reference the same menu item with
// the same set of selected option ids and the same special instructions.
func findIdenticalItem(items []entity.CartItem, menuItemID uint, selections []entity.CartItemSelection, instructions string) *entity.CartItem {
	want := optionIDSet(selections)
	for i := range items {
		it := &items[i]
		if it.MenuItemID != menuItemID || it.SpecialInstructions != instructions {
			continue
		}
		if sameOptionSet(optionIDSet(it.Selections), want) {
			return it
		}
	}
	return nil
}

func optionIDSet(selections []entity.CartItemSelection) map[uint]bool {
	set := make(map[uint]bool, len(selections))
	for _, s := range selections {
		set[s.OptionID] = true
	}
	return set
}

func sameOptionSet(a, b map[uint]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

// groupSelections rebuilds the submitted customization shape from stored
// selection rows.
func groupSelections(selections []entity.CartItemSelection) []CustomizationIn {
	var out []CustomizationIn
	index := make(map[uint]int)
	for _, s := range selections {
		i, ok := index[s.CustomizationID]
		if !ok {
			i = len(out)
			index[s.CustomizationID] = i
			out = append(out, CustomizationIn{CustomizationID: s.CustomizationID})
		}
		out[i].SelectedOptions = append(out[i].SelectedOptions, OptionIn{OptionID: s.OptionID})
	}
	return out
}
