package configs

import (
	"github.com/uchikuch/restaurant-pos-system/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var db *gorm.DB

func DB() *gorm.DB {
	return db
}

func ConnectionDB(source string) {
	database, err := gorm.Open(sqlite.Open(source), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db = database
}

func SetupDatabase() {
	err := db.AutoMigrate(
		&entity.User{},
		&entity.Category{}, &entity.MenuItem{}, &entity.Customization{}, &entity.CustomizationOption{},
		&entity.Cart{}, &entity.CartItem{}, &entity.CartItemSelection{},
		&entity.Order{}, &entity.OrderItem{}, &entity.OrderItemSelection{}, &entity.OrderTimelineEntry{},
		&entity.LoyaltyAccount{}, &entity.LoyaltyTransaction{},
	)
	if err != nil {
		panic("failed to migrate database: " + err.Error())
	}
}
