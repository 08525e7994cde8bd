package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func gormModel(id uint) gorm.Model { return gorm.Model{ID: id} }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// A second pooled connection would see a different in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&entity.User{},
		&entity.Category{}, &entity.MenuItem{}, &entity.Customization{}, &entity.CustomizationOption{},
		&entity.Cart{}, &entity.CartItem{}, &entity.CartItemSelection{},
		&entity.Order{}, &entity.OrderItem{}, &entity.OrderItemSelection{}, &entity.OrderTimelineEntry{},
		&entity.LoyaltyAccount{}, &entity.LoyaltyTransaction{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

var userSeq int

func seedUser(t *testing.T, db *gorm.DB, role string) *entity.User {
	t.Helper()
	userSeq++
	u := &entity.User{
		Email:     fmt.Sprintf("%s%d@example.com", role, userSeq),
		Password:  "x",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		IsActive:  true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedMenuItem creates a pizza at $16.99 with a required size choice
// (medium free, large +$4.00) and an optional toppings group.
func seedMenuItem(t *testing.T, db *gorm.DB) *entity.MenuItem {
	t.Helper()

	cat := &entity.Category{Name: "Pizzas", IsActive: true}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	item := &entity.MenuItem{
		Name:        "Margherita Pizza",
		BasePrice:   1699,
		CategoryID:  cat.ID,
		IsActive:    true,
		IsAvailable: true,
		Customizations: []entity.Customization{
			{
				Name:     "Size",
				Type:     entity.CustomizationSingleSelect,
				Required: true,
				Options: []entity.CustomizationOption{
					{Name: "Medium", PriceModifier: 0, IsAvailable: true},
					{Name: "Large", PriceModifier: 400, IsAvailable: true},
				},
			},
			{
				Name:      "Extra Toppings",
				Type:      entity.CustomizationMultiSelect,
				MaxSelect: 4,
				Options: []entity.CustomizationOption{
					{Name: "Mushrooms", PriceModifier: 150, IsAvailable: true},
					{Name: "Olives", PriceModifier: 150, IsAvailable: false},
				},
			},
		},
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed menu item: %v", err)
	}
	return item
}

func newCartService(db *gorm.DB) *CartService {
	return NewCartService(db, repository.NewCartRepository(db), repository.NewMenuRepository(db), 0.08, 399, 24*time.Hour)
}

func newOrderService(db *gorm.DB) *OrderService {
	loyalty := NewLoyaltyService(db, repository.NewLoyaltyRepository(db))
	return NewOrderService(db,
		repository.NewOrderRepository(db),
		repository.NewMenuRepository(db),
		repository.NewUserRepository(db),
		loyalty, NopNotifier{}, 0.08, 399)
}

// sizeSelection picks an option from the item's Size group by name.
func sizeSelection(t *testing.T, item *entity.MenuItem, optionName string) []CustomizationIn {
	t.Helper()
	for _, cust := range item.Customizations {
		if cust.Name != "Size" {
			continue
		}
		for _, opt := range cust.Options {
			if opt.Name == optionName {
				return []CustomizationIn{{
					CustomizationID: cust.ID,
					SelectedOptions: []OptionIn{{OptionID: opt.ID}},
				}}
			}
		}
	}
	t.Fatalf("option %q not found", optionName)
	return nil
}
