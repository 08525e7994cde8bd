package repository

import (
	"errors"
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"

	"gorm.io/gorm"
)

type CartRepository struct{ DB *gorm.DB }

func NewCartRepository(db *gorm.DB) *CartRepository { return &CartRepository{DB: db} }

var ErrVersionConflict = errors.New("cart version conflict")

func (r *CartRepository) preloaded(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Selections")
}

func (r *CartRepository) GetByID(id uint) (*entity.Cart, error) {
	var c entity.Cart
	if err := r.preloaded(r.DB).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByOwner looks up the cart by exactly one of userID / sessionID.
// Returns gorm.ErrRecordNotFound when absent.
func (r *CartRepository) FindByOwner(userID *uint, sessionID string) (*entity.Cart, error) {
	var c entity.Cart
	q := r.preloaded(r.DB)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	} else {
		q = q.Where("session_id = ? AND user_id IS NULL", sessionID)
	}
	if err := q.First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) Create(c *entity.Cart) error {
	return r.DB.Create(c).Error
}

// BumpVersion is the compare-and-swap that serializes cart mutations. It
// must run first inside the mutation transaction; zero rows affected means a
// concurrent writer won and the caller should reload and retry.
func (r *CartRepository) BumpVersion(tx *gorm.DB, cartID, expected uint) error {
	res := tx.Model(&entity.Cart{}).
		Where("id = ? AND version = ?", cartID, expected).
		Update("version", expected+1)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *CartRepository) CreateItem(tx *gorm.DB, item *entity.CartItem) error {
	return tx.Create(item).Error
}

func (r *CartRepository) SaveItem(tx *gorm.DB, item *entity.CartItem) error {
	return tx.Save(item).Error
}

func (r *CartRepository) DeleteItem(tx *gorm.DB, itemID uint) error {
	if err := tx.Where("cart_item_id = ?", itemID).Delete(&entity.CartItemSelection{}).Error; err != nil {
		return err
	}
	return tx.Delete(&entity.CartItem{}, itemID).Error
}

func (r *CartRepository) ReplaceSelections(tx *gorm.DB, itemID uint, selections []entity.CartItemSelection) error {
	if err := tx.Where("cart_item_id = ?", itemID).Delete(&entity.CartItemSelection{}).Error; err != nil {
		return err
	}
	for i := range selections {
		selections[i].ID = 0
		selections[i].CartItemID = itemID
		if err := tx.Create(&selections[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateTotals writes the recomputed derived fields.
func (r *CartRepository) UpdateTotals(tx *gorm.DB, c *entity.Cart) error {
	return tx.Model(&entity.Cart{}).Where("id = ?", c.ID).Updates(map[string]any{
		"subtotal":            c.Subtotal,
		"tax":                 c.Tax,
		"delivery_fee":        c.DeliveryFee,
		"discount":            c.Discount,
		"total":               c.Total,
		"estimated_prep_time": c.EstimatedPrepTime,
	}).Error
}

func (r *CartRepository) UpdateSettings(tx *gorm.DB, c *entity.Cart) error {
	updates := map[string]any{
		"order_type":           c.OrderType,
		"special_instructions": c.SpecialInstructions,
	}
	if c.DeliveryAddress != nil {
		updates["delivery_street"] = c.DeliveryAddress.Street
		updates["delivery_city"] = c.DeliveryAddress.City
		updates["delivery_state"] = c.DeliveryAddress.State
		updates["delivery_zip_code"] = c.DeliveryAddress.ZipCode
		updates["delivery_instructions"] = c.DeliveryAddress.Instructions
	}
	return tx.Model(&entity.Cart{}).Where("id = ?", c.ID).Updates(updates).Error
}

func (r *CartRepository) ClearItems(tx *gorm.DB, cartID uint) error {
	err := tx.Exec(`
		DELETE FROM cart_item_selections
		 WHERE cart_item_id IN (SELECT id FROM cart_items WHERE cart_id = ?)
	`, cartID).Error
	if err != nil {
		return err
	}
	return tx.Where("cart_id = ?", cartID).Delete(&entity.CartItem{}).Error
}

func (r *CartRepository) Delete(tx *gorm.DB, cartID uint) error {
	if err := r.ClearItems(tx, cartID); err != nil {
		return err
	}
	return tx.Unscoped().Delete(&entity.Cart{}, cartID).Error
}

// DeleteExpired backs the TTL sweeper.
func (r *CartRepository) DeleteExpired(now time.Time) (int64, error) {
	var ids []uint
	if err := r.DB.Model(&entity.Cart{}).Where("expires_at < ?", now).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	for _, id := range ids {
		err := r.DB.Transaction(func(tx *gorm.DB) error {
			return r.Delete(tx, id)
		})
		if err != nil {
			return int64(len(ids)), err
		}
	}
	return int64(len(ids)), nil
}
