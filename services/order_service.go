package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
	"github.com/uchikuch/restaurant-pos-system/repository"
	"github.com/uchikuch/restaurant-pos-system/utils"

	"gorm.io/gorm"
)

type OrderService struct {
	DB       *gorm.DB
	Repo     *repository.OrderRepository
	MenuRepo *repository.MenuRepository
	UserRepo *repository.UserRepository
	Loyalty  *LoyaltyService
	Notify   Notifier

	TaxRate     float64
	DeliveryFee int64
}

func NewOrderService(db *gorm.DB, repo *repository.OrderRepository, menuRepo *repository.MenuRepository, userRepo *repository.UserRepository, loyalty *LoyaltyService, notify Notifier, taxRate float64, deliveryFee int64) *OrderService {
	return &OrderService{
		DB: db, Repo: repo, MenuRepo: menuRepo, UserRepo: userRepo,
		Loyalty: loyalty, Notify: notify,
		TaxRate: taxRate, DeliveryFee: deliveryFee,
	}
}

type OrderItemIn struct {
	MenuItemID          uint              `json:"menuItemId" binding:"required"`
	Quantity            int               `json:"quantity" binding:"required,min=1"`
	Customizations      []CustomizationIn `json:"customizations"`
	SpecialInstructions string            `json:"specialInstructions"`
}

type CreateOrderIn struct {
	Items               []OrderItemIn   `json:"items" binding:"required"`
	OrderType           string          `json:"orderType" binding:"required"`
	DeliveryAddress     *entity.Address `json:"deliveryAddress"`
	SpecialInstructions string          `json:"specialInstructions"`
	Tip                 int64           `json:"tip"`
	ScheduledFor        *time.Time      `json:"scheduledFor"`
	LoyaltyPointsToUse  int             `json:"loyaltyPointsToUse"`
}

// Create prices the submitted items from the menu, never trusting client
// amounts, and writes the order, its first timeline entry and any loyalty
// redemption in one transaction.
func (s *OrderService) Create(userID uint, in *CreateOrderIn) (*entity.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "order must contain at least one item")
	}
	switch in.OrderType {
	case entity.OrderTypePickup, entity.OrderTypeDelivery, entity.OrderTypeDineIn:
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown order type %q", in.OrderType)
	}
	if in.OrderType == entity.OrderTypeDelivery && in.DeliveryAddress == nil {
		return nil, apperr.New(apperr.KindValidation, "delivery address is required for delivery orders")
	}
	if in.Tip < 0 {
		return nil, apperr.New(apperr.KindValidation, "tip cannot be negative")
	}
	if in.LoyaltyPointsToUse < 0 {
		return nil, apperr.New(apperr.KindValidation, "loyalty points cannot be negative")
	}

	var (
		items    []entity.OrderItem
		estItems []entity.CartItem
		subtotal int64
	)
	for _, itemIn := range in.Items {
		if itemIn.Quantity < 1 {
			return nil, apperr.New(apperr.KindValidation, "quantity must be at least 1")
		}
		menuItem, err := s.MenuRepo.GetMenuItem(itemIn.MenuItemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "menu item not found")
		}
		if err != nil {
			return nil, err
		}
		if !menuItem.IsActive || !menuItem.IsAvailable {
			return nil, apperr.Newf(apperr.KindUnavailable, "menu item %q is not available", menuItem.Name)
		}

		itemPrice, selections, err := PriceItem(menuItem, itemIn.Customizations)
		if err != nil {
			return nil, err
		}

		item := entity.OrderItem{
			MenuItemID:          menuItem.ID,
			Name:                menuItem.Name,
			BasePrice:           menuItem.BasePrice,
			Quantity:            itemIn.Quantity,
			SpecialInstructions: itemIn.SpecialInstructions,
			ItemPrice:           itemPrice,
			Subtotal:            itemPrice * int64(itemIn.Quantity),
			Selections:          orderSelections(selections),
		}
		items = append(items, item)
		estItems = append(estItems, entity.CartItem{Quantity: itemIn.Quantity, Selections: selections})
		subtotal += item.Subtotal
	}

	tax := TaxCents(subtotal, s.TaxRate)
	var fee int64
	if in.OrderType == entity.OrderTypeDelivery {
		fee = s.DeliveryFee
	}
	discount := RedemptionValueCents(in.LoyaltyPointsToUse)

	order := &entity.Order{
		UserID:              userID,
		Items:               items,
		Subtotal:            subtotal,
		Tax:                 tax,
		Tip:                 in.Tip,
		DeliveryFee:         fee,
		Discount:            discount,
		Total:               subtotal + tax + in.Tip + fee - discount,
		Status:              entity.OrderPending,
		PaymentStatus:       entity.PaymentPending,
		OrderType:           in.OrderType,
		DeliveryAddress:     in.DeliveryAddress,
		SpecialInstructions: in.SpecialInstructions,
		EstimatedPrepTime:   PrepTimeMinutes(estItems, in.OrderType),
		ScheduledFor:        in.ScheduledFor,
		LoyaltyPointsUsed:   in.LoyaltyPointsToUse,
	}

	// The random order number suffix can collide; retry with a fresh one.
	const attempts = 3
	var err error
	for i := 0; i < attempts; i++ {
		order.OrderNumber = utils.NewOrderNumber(time.Now())
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			if err := s.Repo.Create(tx, order); err != nil {
				return err
			}
			if in.LoyaltyPointsToUse > 0 {
				if _, err := s.Loyalty.RedeemPointsTx(tx, userID, order.ID, in.LoyaltyPointsToUse); err != nil {
					return err
				}
			}
			return s.Repo.AppendTimeline(tx, &entity.OrderTimelineEntry{
				OrderID:   order.ID,
				Status:    entity.OrderPending,
				Timestamp: time.Now(),
				Notes:     "Order created",
			})
		})
		if err != nil && isDuplicateKey(err) {
			// The rolled-back insert left primary keys on the structs.
			order.ID = 0
			for i := range order.Items {
				order.Items[i].ID = 0
				order.Items[i].OrderID = 0
				for j := range order.Items[i].Selections {
					order.Items[i].Selections[j].ID = 0
					order.Items[i].Selections[j].OrderItemID = 0
				}
			}
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	for _, it := range order.Items {
		// Sold counts are advisory; a failed bump never fails the order.
		_ = s.MenuRepo.IncrementSoldCount(it.MenuItemID, it.Quantity)
	}
	if s.Notify != nil {
		s.Notify.OrderCreated(order)
	}
	return s.Repo.GetByID(order.ID)
}

// UpdateStatus moves the order through the status machine. Customers may
// only cancel their own pending orders; staff drive everything else.
func (s *OrderService) UpdateStatus(actorID uint, actorRole string, orderID uint, to entity.OrderStatus, notes string) (*entity.Order, error) {
	if !IsValidStatus(to) {
		return nil, apperr.Newf(apperr.KindValidation, "unknown order status %q", to)
	}

	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	var staffID *uint
	switch actorRole {
	case entity.RoleCustomer:
		if order.UserID != actorID {
			return nil, apperr.New(apperr.KindForbidden, "not your order")
		}
		if to != entity.OrderCancelled {
			return nil, apperr.New(apperr.KindForbidden, "customers may only cancel orders")
		}
		if order.Status != entity.OrderPending {
			return nil, apperr.Newf(apperr.KindInvalidTransition, "only pending orders can be cancelled, order is %s", order.Status)
		}
	default:
		staffID = &actorID
	}

	if err := CanTransition(order.Status, to); err != nil {
		return nil, err
	}

	previous := order.Status
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusGuard(tx, order.ID, previous, to)
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperr.New(apperr.KindConflict, "order status changed concurrently, please retry")
		}

		if err := s.Repo.AppendTimeline(tx, &entity.OrderTimelineEntry{
			OrderID:   order.ID,
			Status:    to,
			Timestamp: time.Now(),
			StaffID:   staffID,
			Notes:     notes,
		}); err != nil {
			return err
		}

		if to == entity.OrderCompleted {
			return s.completeOrder(tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	if s.Notify != nil {
		s.Notify.OrderStatusChanged(updated, previous)
	}
	return updated, nil
}

// completeOrder records the actual prep time and awards loyalty points.
// The status guard already made the completed transition exclusive, so the
// award can never run twice.
func (s *OrderService) completeOrder(tx *gorm.DB, order *entity.Order) error {
	updates := map[string]any{}
	if order.ActualPrepTime == nil {
		actual := int(time.Since(order.CreatedAt).Minutes())
		if actual < 1 {
			actual = 1
		}
		updates["actual_prep_time"] = actual
	}

	points, err := s.Loyalty.EarnPointsTx(tx, order.UserID, order.ID, order.Total)
	if err != nil {
		return err
	}
	if points > 0 {
		updates["loyalty_points_earned"] = points
	}

	if len(updates) == 0 {
		return nil
	}
	return s.Repo.UpdateFields(tx, order.ID, updates)
}

type AssignStaffIn struct {
	StaffID uint `json:"staffId" binding:"required"`
}

// AssignStaff attaches a kitchen staff member to the order without touching
// its status.
func (s *OrderService) AssignStaff(actorID, orderID, staffID uint) (*entity.Order, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	staff, err := s.UserRepo.FindByID(staffID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "staff member not found")
	}
	if err != nil {
		return nil, err
	}
	if staff.Role != entity.RoleKitchenStaff && staff.Role != entity.RoleAdmin {
		return nil, apperr.New(apperr.KindValidation, "assignee must be kitchen staff")
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.UpdateFields(tx, order.ID, map[string]any{"assigned_to_staff_id": staffID}); err != nil {
			return err
		}
		return s.Repo.AppendTimeline(tx, &entity.OrderTimelineEntry{
			OrderID:   order.ID,
			Status:    order.Status,
			Timestamp: time.Now(),
			StaffID:   &actorID,
			Notes:     fmt.Sprintf("Assigned to %s %s", staff.FirstName, staff.LastName),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Repo.GetByID(order.ID)
}

type RatingIn struct {
	Overall  int  `json:"overall" binding:"required,min=1,max=5"`
	Food     int  `json:"food" binding:"required,min=1,max=5"`
	Service  int  `json:"service" binding:"required,min=1,max=5"`
	Delivery *int `json:"delivery"`
}

// AddRating stores customer feedback on a completed order. Rating again
// overwrites the previous rating.
func (s *OrderService) AddRating(userID, orderID uint, in *RatingIn) (*entity.Order, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.New(apperr.KindForbidden, "not your order")
	}
	if order.Status != entity.OrderCompleted {
		return nil, apperr.New(apperr.KindValidation, "only completed orders can be rated")
	}
	for _, v := range []int{in.Overall, in.Food, in.Service} {
		if v < 1 || v > 5 {
			return nil, apperr.New(apperr.KindValidation, "ratings must be between 1 and 5")
		}
	}
	if in.Delivery != nil && (*in.Delivery < 1 || *in.Delivery > 5) {
		return nil, apperr.New(apperr.KindValidation, "ratings must be between 1 and 5")
	}

	updates := map[string]any{
		"rating_overall":  in.Overall,
		"rating_food":     in.Food,
		"rating_service":  in.Service,
		"rating_delivery": in.Delivery,
		"rating_rated_at": time.Now(),
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return s.Repo.UpdateFields(tx, order.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.Repo.GetByID(order.ID)
}

type UpdateOrderIn struct {
	Tip            *int64     `json:"tip"`
	ScheduledFor   *time.Time `json:"scheduledFor"`
	ActualPrepTime *int       `json:"actualPrepTime"`
}

// Update changes the few mutable order fields. The tip can only move while
// payment is still pending, since it is part of the charged total.
func (s *OrderService) Update(orderID uint, in *UpdateOrderIn) (*entity.Order, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Tip != nil {
		if *in.Tip < 0 {
			return nil, apperr.New(apperr.KindValidation, "tip cannot be negative")
		}
		if order.PaymentStatus != entity.PaymentPending {
			return nil, apperr.New(apperr.KindValidation, "tip cannot change after payment has started")
		}
		updates["tip"] = *in.Tip
		updates["total"] = order.Total - order.Tip + *in.Tip
	}
	if in.ScheduledFor != nil {
		updates["scheduled_for"] = *in.ScheduledFor
	}
	if in.ActualPrepTime != nil {
		if *in.ActualPrepTime < 0 {
			return nil, apperr.New(apperr.KindValidation, "prep time cannot be negative")
		}
		updates["actual_prep_time"] = *in.ActualPrepTime
	}
	if len(updates) == 0 {
		return order, nil
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return s.Repo.UpdateFields(tx, order.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.Repo.GetByID(order.ID)
}

// Remove deletes an order outright. Only pending, unpaid orders qualify;
// anything further along is cancelled through the status machine instead.
func (s *OrderService) Remove(orderID uint) error {
	order, err := s.getOrder(orderID)
	if err != nil {
		return err
	}
	if order.Status != entity.OrderPending {
		return apperr.Newf(apperr.KindValidation, "only pending orders can be deleted, order is %s", order.Status)
	}
	if order.PaymentStatus == entity.PaymentCompleted {
		return apperr.New(apperr.KindValidation, "paid orders cannot be deleted")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.Repo.Delete(tx, order.ID)
	})
}

func (s *OrderService) List(f repository.OrderFilter) ([]entity.Order, int64, error) {
	return s.Repo.List(f)
}

func (s *OrderService) KitchenList(assignedToStaffID uint, page, limit int) ([]entity.Order, int64, error) {
	return s.Repo.KitchenList(assignedToStaffID, page, limit)
}

// GetByID enforces ownership for customers; staff see everything.
func (s *OrderService) GetByID(actorID uint, actorRole string, orderID uint) (*entity.Order, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if actorRole == entity.RoleCustomer && order.UserID != actorID {
		return nil, apperr.New(apperr.KindForbidden, "not your order")
	}
	return order, nil
}

func (s *OrderService) GetByOrderNumber(actorID uint, actorRole string, orderNumber string) (*entity.Order, error) {
	order, err := s.Repo.GetByOrderNumber(orderNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	if actorRole == entity.RoleCustomer && order.UserID != actorID {
		return nil, apperr.New(apperr.KindForbidden, "not your order")
	}
	return order, nil
}

func (s *OrderService) getOrder(orderID uint) (*entity.Order, error) {
	order, err := s.Repo.GetByID(orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	return order, err
}

func orderSelections(selections []entity.CartItemSelection) []entity.OrderItemSelection {
	out := make([]entity.OrderItemSelection, len(selections))
	for i, s := range selections {
		out[i] = entity.OrderItemSelection{
			CustomizationID:   s.CustomizationID,
			CustomizationName: s.CustomizationName,
			OptionID:          s.OptionID,
			OptionName:        s.OptionName,
			PriceModifier:     s.PriceModifier,
		}
	}
	return out
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key")
}
