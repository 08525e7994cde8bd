package configs

import (
	"log"

	"github.com/uchikuch/restaurant-pos-system/entity"

	"golang.org/x/crypto/bcrypt"
)

func SeedAdmin() error {
	db := DB()
	email := getEnv("ADMIN_EMAIL", "")
	pass := getEnv("ADMIN_PASSWORD", "")
	if email == "" || pass == "" {
		log.Println("skip seeding admin: missing ADMIN_EMAIL/ADMIN_PASSWORD")
		return nil
	}

	var count int64
	db.Model(&entity.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		log.Println("admin already exists:", email)
		return nil
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	admin := entity.User{
		Email:     email,
		Password:  string(hash),
		FirstName: "Admin",
		LastName:  "Seed",
		Role:      entity.RoleAdmin,
		IsActive:  true,
	}
	return db.Create(&admin).Error
}

// SeedMenu loads a small starter catalog so a fresh install has something to
// sell. Idempotent: skipped when any category already exists.
func SeedMenu() error {
	db := DB()

	var count int64
	db.Model(&entity.Category{}).Count(&count)
	if count > 0 {
		return nil
	}

	pizzas := entity.Category{Name: "Pizzas", Description: "Stone-baked classics", SortOrder: 1, IsActive: true}
	drinks := entity.Category{Name: "Drinks", SortOrder: 2, IsActive: true}
	if err := db.Create(&pizzas).Error; err != nil {
		return err
	}
	if err := db.Create(&drinks).Error; err != nil {
		return err
	}

	margherita := entity.MenuItem{
		Name:        "Margherita Pizza",
		Description: "Tomato, mozzarella, basil",
		BasePrice:   1699,
		CategoryID:  pizzas.ID,
		IsActive:    true,
		IsAvailable: true,
		Customizations: []entity.Customization{
			{
				Name: "Size", Type: entity.CustomizationSingleSelect,
				Required: true, MinSelect: 1, MaxSelect: 1, SortOrder: 1,
				Options: []entity.CustomizationOption{
					{Name: `Medium (12")`, PriceModifier: 0, IsAvailable: true, SortOrder: 1},
					{Name: `Large (14")`, PriceModifier: 400, IsAvailable: true, SortOrder: 2},
				},
			},
			{
				Name: "Extra Toppings", Type: entity.CustomizationMultiSelect,
				MinSelect: 0, MaxSelect: 4, SortOrder: 2,
				Options: []entity.CustomizationOption{
					{Name: "Mushrooms", PriceModifier: 150, IsAvailable: true, SortOrder: 1},
					{Name: "Olives", PriceModifier: 150, IsAvailable: true, SortOrder: 2},
					{Name: "Prosciutto", PriceModifier: 300, IsAvailable: true, SortOrder: 3},
				},
			},
		},
	}
	if err := db.Create(&margherita).Error; err != nil {
		return err
	}

	cola := entity.MenuItem{
		Name: "Cola", BasePrice: 299, CategoryID: drinks.ID,
		IsActive: true, IsAvailable: true,
	}
	return db.Create(&cola).Error
}
