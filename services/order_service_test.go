package services

import (
	"regexp"
	"testing"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[[2]entity.OrderStatus]bool{
		{entity.OrderPending, entity.OrderConfirmed}:        true,
		{entity.OrderPending, entity.OrderCancelled}:        true,
		{entity.OrderConfirmed, entity.OrderPreparing}:      true,
		{entity.OrderConfirmed, entity.OrderCancelled}:      true,
		{entity.OrderPreparing, entity.OrderReady}:          true,
		{entity.OrderPreparing, entity.OrderCancelled}:      true,
		{entity.OrderReady, entity.OrderCompleted}:          true,
		{entity.OrderReady, entity.OrderOutForDelivery}:     true,
		{entity.OrderOutForDelivery, entity.OrderCompleted}: true,
	}
	all := []entity.OrderStatus{
		entity.OrderPending, entity.OrderConfirmed, entity.OrderPreparing,
		entity.OrderReady, entity.OrderOutForDelivery, entity.OrderCompleted, entity.OrderCancelled,
	}

	for _, from := range all {
		for _, to := range all {
			err := CanTransition(from, to)
			if allowed[[2]entity.OrderStatus{from, to}] {
				if err != nil {
					t.Errorf("%s -> %s should be allowed: %v", from, to, err)
				}
			} else if !apperr.IsKind(err, apperr.KindInvalidTransition) {
				t.Errorf("%s -> %s should be rejected, got %v", from, to, err)
			}
		}
	}

	if err := CanTransition("teleported", entity.OrderPending); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("unknown status should be a validation error, got %v", err)
	}
}

func TestOrderCreatePricesServerSide(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)
	item := seedMenuItem(t, db)
	user := seedUser(t, db, entity.RoleCustomer)

	order, err := svc.Create(user.ID, &CreateOrderIn{
		Items: []OrderItemIn{{
			MenuItemID:     item.ID,
			Quantity:       2,
			Customizations: sizeSelection(t, item, "Large"),
		}},
		OrderType: entity.OrderTypePickup,
		Tip:       500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if order.Subtotal != 4198 || order.Tax != 336 {
		t.Errorf("subtotal/tax = %d/%d, want 4198/336", order.Subtotal, order.Tax)
	}
	if order.Total != 4198+336+500 {
		t.Errorf("total = %d, want %d", order.Total, 4198+336+500)
	}
	if order.Status != entity.OrderPending || order.PaymentStatus != entity.PaymentPending {
		t.Errorf("status = %s/%s, want pending/pending", order.Status, order.PaymentStatus)
	}
	if ok, _ := regexp.MatchString(`^ORD-\d{8}-[0-9A-Z]{4}$`, order.OrderNumber); !ok {
		t.Errorf("order number %q has wrong format", order.OrderNumber)
	}
	if len(order.Timeline) != 1 || order.Timeline[0].Status != entity.OrderPending {
		t.Errorf("expected one pending timeline entry, got %+v", order.Timeline)
	}

	// Sold count incremented by quantity.
	fresh, err := svc.MenuRepo.GetMenuItem(item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.SoldCount != 2 {
		t.Errorf("sold count = %d, want 2", fresh.SoldCount)
	}
}

func TestOrderCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)
	item := seedMenuItem(t, db)
	user := seedUser(t, db, entity.RoleCustomer)

	if _, err := svc.Create(user.ID, &CreateOrderIn{OrderType: entity.OrderTypePickup}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("empty order: got %v", err)
	}
	if _, err := svc.Create(user.ID, &CreateOrderIn{
		Items:     []OrderItemIn{{MenuItemID: item.ID, Quantity: 1}},
		OrderType: entity.OrderTypeDelivery,
	}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("delivery without address: got %v", err)
	}
	if _, err := svc.Create(user.ID, &CreateOrderIn{
		Items:     []OrderItemIn{{MenuItemID: 999, Quantity: 1}},
		OrderType: entity.OrderTypePickup,
	}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown menu item: got %v", err)
	}
}

func TestOrderCreateWithLoyaltyRedemption(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)
	item := seedMenuItem(t, db)
	user := seedUser(t, db, entity.RoleCustomer)

	if _, err := svc.Loyalty.AddBonusPoints(user.ID, 500, "welcome", nil); err != nil {
		t.Fatalf("bonus: %v", err)
	}

	in := &CreateOrderIn{
		Items:              []OrderItemIn{{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")}},
		OrderType:          entity.OrderTypePickup,
		LoyaltyPointsToUse: 200,
	}
	order, err := svc.Create(user.ID, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.Discount != 200 {
		t.Errorf("discount = %d, want 200 cents for 200 points", order.Discount)
	}
	if order.LoyaltyPointsUsed != 200 {
		t.Errorf("points used = %d", order.LoyaltyPointsUsed)
	}
	want := order.Subtotal + order.Tax - 200
	if order.Total != want {
		t.Errorf("total = %d, want %d", order.Total, want)
	}

	acc, err := svc.Loyalty.GetAccount(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if acc.TotalPoints != 300 {
		t.Errorf("balance = %d, want 300", acc.TotalPoints)
	}

	// Overspending rolls the whole order back.
	in.LoyaltyPointsToUse = 1000
	if _, err := svc.Create(user.ID, in); !apperr.IsKind(err, apperr.KindInsufficientPoints) {
		t.Fatalf("expected insufficient points, got %v", err)
	}
	var count int64
	db.Model(&entity.Order{}).Count(&count)
	if count != 1 {
		t.Errorf("order count = %d, want 1 after rollback", count)
	}
}

func TestOrderStatusFlow(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)
	item := seedMenuItem(t, db)
	user := seedUser(t, db, entity.RoleCustomer)
	staff := seedUser(t, db, entity.RoleKitchenStaff)

	order, err := svc.Create(user.ID, &CreateOrderIn{
		Items:     []OrderItemIn{{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")}},
		OrderType: entity.OrderTypePickup,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Customers cannot confirm.
	if _, err := svc.UpdateStatus(user.ID, entity.RoleCustomer, order.ID, entity.OrderConfirmed, ""); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("customer confirm: got %v", err)
	}

	// Staff cannot skip steps.
	if _, err := svc.UpdateStatus(staff.ID, entity.RoleKitchenStaff, order.ID, entity.OrderReady, ""); !apperr.IsKind(err, apperr.KindInvalidTransition) {
		t.Errorf("pending -> ready: got %v", err)
	}

	for _, next := range []entity.OrderStatus{
		entity.OrderConfirmed, entity.OrderPreparing, entity.OrderReady, entity.OrderCompleted,
	} {
		if order, err = svc.UpdateStatus(staff.ID, entity.RoleKitchenStaff, order.ID, next, ""); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}

	if order.ActualPrepTime == nil {
		t.Error("actual prep time not recorded on completion")
	}
	if len(order.Timeline) != 5 {
		t.Errorf("timeline entries = %d, want 5", len(order.Timeline))
	}
	if order.LoyaltyPointsEarned == 0 {
		t.Error("no loyalty points awarded on completion")
	}

	acc, err := svc.Loyalty.GetAccount(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	// $18.35 total at the bronze rate.
	if acc.TotalPoints != 183 {
		t.Errorf("points = %d, want 183", acc.TotalPoints)
	}

	// Terminal state.
	if _, err := svc.UpdateStatus(staff.ID, entity.RoleKitchenStaff, order.ID, entity.OrderCancelled, ""); !apperr.IsKind(err, apperr.KindInvalidTransition) {
		t.Errorf("completed -> cancelled: got %v", err)
	}
}

func TestCustomerCancelsOwnPendingOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)
	item := seedMenuItem(t, db)
	user := seedUser(t, db, entity.RoleCustomer)
	other := seedUser(t, db, entity.RoleCustomer)

	order, err := svc.Create(user.ID, &CreateOrderIn{
		Items:     []OrderItemIn{{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")}},
		OrderType: entity.OrderTypePickup,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(other.ID, entity.RoleCustomer, order.ID, entity.OrderCancelled, ""); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("stranger cancel: got %v", err)
	}

	order, err = svc.UpdateStatus(user.ID, entity.RoleCustomer, order.ID, entity.OrderCancelled, "changed my mind")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if order.Status != entity.OrderCancelled {
		t.Errorf("status = %s", order.Status)
	}
}

func TestOrderRating(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)
	item := seedMenuItem(t, db)
	user := seedUser(t, db, entity.RoleCustomer)
	staff := seedUser(t, db, entity.RoleKitchenStaff)

	order, err := svc.Create(user.ID, &CreateOrderIn{
		Items:     []OrderItemIn{{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")}},
		OrderType: entity.OrderTypePickup,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rating := &RatingIn{Overall: 5, Food: 4, Service: 5}
	if _, err := svc.AddRating(user.ID, order.ID, rating); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("rating a pending order: got %v", err)
	}

	for _, next := range []entity.OrderStatus{
		entity.OrderConfirmed, entity.OrderPreparing, entity.OrderReady, entity.OrderCompleted,
	} {
		if _, err := svc.UpdateStatus(staff.ID, entity.RoleKitchenStaff, order.ID, next, ""); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}

	rated, err := svc.AddRating(user.ID, order.ID, rating)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rated.Rating == nil || rated.Rating.Overall != 5 {
		t.Fatalf("rating not stored: %+v", rated.Rating)
	}

	// Re-rating overwrites.
	rated, err = svc.AddRating(user.ID, order.ID, &RatingIn{Overall: 2, Food: 2, Service: 2})
	if err != nil {
		t.Fatalf("re-rate: %v", err)
	}
	if rated.Rating.Overall != 2 {
		t.Errorf("overall = %d, want 2", rated.Rating.Overall)
	}

	if _, err := svc.AddRating(staff.ID, order.ID, rating); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("stranger rating: got %v", err)
	}
	if _, err := svc.AddRating(user.ID, order.ID, &RatingIn{Overall: 6, Food: 1, Service: 1}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("out of range rating: got %v", err)
	}
}

func TestOrderRemoveOnlyPending(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)
	item := seedMenuItem(t, db)
	user := seedUser(t, db, entity.RoleCustomer)
	staff := seedUser(t, db, entity.RoleKitchenStaff)

	order, err := svc.Create(user.ID, &CreateOrderIn{
		Items:     []OrderItemIn{{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")}},
		OrderType: entity.OrderTypePickup,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(staff.ID, entity.RoleKitchenStaff, order.ID, entity.OrderConfirmed, ""); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(order.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("removing confirmed order: got %v", err)
	}

	second, err := svc.Create(user.ID, &CreateOrderIn{
		Items:     []OrderItemIn{{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")}},
		OrderType: entity.OrderTypePickup,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(second.ID); err != nil {
		t.Fatalf("remove pending: %v", err)
	}
	if _, err := svc.GetByID(user.ID, entity.RoleCustomer, second.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("order still readable after delete: %v", err)
	}
}
