package services

import (
	"testing"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
)

func TestCartGetOrCreateIsStable(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	owner := CartOwner{SessionID: "guest-1"}

	first, err := svc.GetOrCreate(owner)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.GetOrCreate(owner)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("got a new cart %d, want %d", second.ID, first.ID)
	}
	if first.OrderType != entity.OrderTypePickup {
		t.Errorf("default order type = %q, want pickup", first.OrderType)
	}
}

func TestCartOwnerRequired(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)

	if _, err := svc.GetOrCreate(CartOwner{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCartAddItemTotals(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	item := seedMenuItem(t, db)
	owner := CartOwner{SessionID: "guest-1"}

	cart, err := svc.AddItem(owner, &AddItemIn{
		MenuItemID:     item.ID,
		Quantity:       2,
		Customizations: sizeSelection(t, item, "Large"),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if cart.Subtotal != 4198 {
		t.Errorf("subtotal = %d, want 4198", cart.Subtotal)
	}
	if cart.Tax != 336 {
		t.Errorf("tax = %d, want 336", cart.Tax)
	}
	if cart.DeliveryFee != 0 {
		t.Errorf("delivery fee = %d, want 0 for pickup", cart.DeliveryFee)
	}
	if cart.Total != 4534 {
		t.Errorf("total = %d, want 4534", cart.Total)
	}
	if cart.EstimatedPrepTime != 12 {
		t.Errorf("prep time = %d, want 12", cart.EstimatedPrepTime)
	}
	if len(cart.Items) != 1 || cart.Items[0].ItemPrice != 2099 {
		t.Fatalf("unexpected items: %+v", cart.Items)
	}
}

func TestCartAddItemMergesIdenticalLines(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	item := seedMenuItem(t, db)
	owner := CartOwner{SessionID: "guest-1"}

	in := &AddItemIn{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Large")}
	if _, err := svc.AddItem(owner, in); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(owner, in)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("lines = %d, want 1", len(cart.Items))
	}
	if cart.Items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", cart.Items[0].Quantity)
	}

	// A different size is a different line.
	cart, err = svc.AddItem(owner, &AddItemIn{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")})
	if err != nil {
		t.Fatalf("third add: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Errorf("lines = %d, want 2", len(cart.Items))
	}
}

func TestCartAddUnavailableItem(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	item := seedMenuItem(t, db)
	if err := db.Model(item).Update("is_available", false).Error; err != nil {
		t.Fatal(err)
	}

	_, err := svc.AddItem(CartOwner{SessionID: "g"}, &AddItemIn{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")})
	if !apperr.IsKind(err, apperr.KindUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestCartUpdateAndRemoveItem(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	item := seedMenuItem(t, db)
	owner := CartOwner{SessionID: "guest-1"}

	cart, err := svc.AddItem(owner, &AddItemIn{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := cart.Items[0].ID

	qty := 3
	cart, err = svc.UpdateItem(owner, itemID, &UpdateItemIn{Quantity: &qty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cart.Items[0].Quantity != 3 || cart.Subtotal != 3*1699 {
		t.Errorf("quantity = %d subtotal = %d", cart.Items[0].Quantity, cart.Subtotal)
	}

	bad := 0
	if _, err := svc.UpdateItem(owner, itemID, &UpdateItemIn{Quantity: &bad}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation for zero quantity, got %v", err)
	}

	cart, err = svc.RemoveItem(owner, itemID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart.Items) != 0 || cart.Total != 0 || cart.EstimatedPrepTime != 0 {
		t.Errorf("cart not emptied: %+v", cart)
	}

	if _, err := svc.RemoveItem(owner, itemID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCartItemsAreOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	item := seedMenuItem(t, db)

	cart, err := svc.AddItem(CartOwner{SessionID: "alice"}, &AddItemIn{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// Another session cannot touch alice's line.
	if _, err := svc.RemoveItem(CartOwner{SessionID: "mallory"}, cart.Items[0].ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCartDeliverySettings(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	item := seedMenuItem(t, db)
	owner := CartOwner{SessionID: "guest-1"}

	if _, err := svc.AddItem(owner, &AddItemIn{MenuItemID: item.ID, Quantity: 1, Customizations: sizeSelection(t, item, "Medium")}); err != nil {
		t.Fatalf("add: %v", err)
	}

	deliver := entity.OrderTypeDelivery
	_, err := svc.UpdateSettings(owner, &UpdateCartSettingsIn{OrderType: &deliver})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected address requirement, got %v", err)
	}

	cart, err := svc.UpdateSettings(owner, &UpdateCartSettingsIn{
		OrderType:       &deliver,
		DeliveryAddress: &entity.Address{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701"},
	})
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if cart.DeliveryFee != 399 {
		t.Errorf("delivery fee = %d, want 399", cart.DeliveryFee)
	}
	if cart.Total != cart.Subtotal+cart.Tax+399 {
		t.Errorf("total = %d not consistent", cart.Total)
	}

	bogus := "drone"
	if _, err := svc.UpdateSettings(owner, &UpdateCartSettingsIn{OrderType: &bogus}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation for bogus order type, got %v", err)
	}
}

func TestCartConvertToOrderDraft(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	item := seedMenuItem(t, db)
	user := seedUser(t, db, entity.RoleCustomer)

	if _, err := svc.ConvertToOrderDraft(user.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found without a cart, got %v", err)
	}

	owner := CartOwner{UserID: &user.ID}
	if _, err := svc.GetOrCreate(owner); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ConvertToOrderDraft(user.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation for empty cart, got %v", err)
	}

	if _, err := svc.AddItem(owner, &AddItemIn{MenuItemID: item.ID, Quantity: 2, Customizations: sizeSelection(t, item, "Large")}); err != nil {
		t.Fatalf("add: %v", err)
	}

	draft, err := svc.ConvertToOrderDraft(user.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(draft.Items) != 1 || draft.Items[0].Quantity != 2 {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if draft.OrderType != entity.OrderTypePickup {
		t.Errorf("order type = %q", draft.OrderType)
	}

	// Conversion leaves the cart intact.
	cart, err := svc.GetOrCreate(owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Items) != 1 {
		t.Errorf("cart was cleared by conversion")
	}

	// An item going off-menu blocks conversion.
	if err := db.Model(item).Update("is_available", false).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ConvertToOrderDraft(user.ID); !apperr.IsKind(err, apperr.KindUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
}
