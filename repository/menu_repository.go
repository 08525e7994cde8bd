package repository

import (
	"github.com/uchikuch/restaurant-pos-system/entity"

	"gorm.io/gorm"
)

type MenuRepository struct{ DB *gorm.DB }

func NewMenuRepository(db *gorm.DB) *MenuRepository { return &MenuRepository{DB: db} }

// GetMenuItem loads the item with its full customization tree. This is the
// menu-lookup collaborator for cart pricing and order creation.
func (r *MenuRepository) GetMenuItem(id uint) (*entity.MenuItem, error) {
	var m entity.MenuItem
	err := r.DB.
		Preload("Customizations", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Customizations.Options", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type MenuItemFilter struct {
	CategoryID    uint
	Search        string
	AvailableOnly bool
	Page, Limit   int
}

func (r *MenuRepository) ListMenuItems(f MenuItemFilter) ([]entity.MenuItem, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	q := r.DB.Model(&entity.MenuItem{})
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Search != "" {
		q = q.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.AvailableOnly {
		q = q.Where("is_active = ? AND is_available = ?", true, true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entity.MenuItem
	err := q.Preload("Customizations.Options").
		Order("id").Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&items).Error
	return items, total, err
}

func (r *MenuRepository) CreateMenuItem(m *entity.MenuItem) error {
	return r.DB.Create(m).Error
}

func (r *MenuRepository) SaveMenuItem(m *entity.MenuItem) error {
	return r.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(m).Error
}

func (r *MenuRepository) DeleteMenuItem(id uint) error {
	return r.DB.Delete(&entity.MenuItem{}, id).Error
}

// IncrementSoldCount is a best-effort counter, not transactional with order
// creation; reconcilable by recomputation from order items.
func (r *MenuRepository) IncrementSoldCount(id uint, qty int) error {
	return r.DB.Model(&entity.MenuItem{}).Where("id = ?", id).
		UpdateColumn("sold_count", gorm.Expr("sold_count + ?", qty)).Error
}

// ---------------- Categories ----------------

func (r *MenuRepository) ListCategories(activeOnly bool) ([]entity.Category, error) {
	q := r.DB.Model(&entity.Category{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []entity.Category
	err := q.Order("sort_order, id").Find(&out).Error
	return out, err
}

func (r *MenuRepository) GetCategory(id uint) (*entity.Category, error) {
	var c entity.Category
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *MenuRepository) CreateCategory(c *entity.Category) error {
	return r.DB.Create(c).Error
}

func (r *MenuRepository) SaveCategory(c *entity.Category) error {
	return r.DB.Save(c).Error
}

func (r *MenuRepository) DeleteCategory(id uint) error {
	return r.DB.Delete(&entity.Category{}, id).Error
}
