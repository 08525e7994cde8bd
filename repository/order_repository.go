package repository

import (
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"

	"gorm.io/gorm"
)

type OrderRepository struct{ DB *gorm.DB }

func NewOrderRepository(db *gorm.DB) *OrderRepository { return &OrderRepository{DB: db} }

func (r *OrderRepository) preloaded(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Selections").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (r *OrderRepository) Create(tx *gorm.DB, o *entity.Order) error {
	return tx.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*entity.Order, error) {
	var o entity.Order
	if err := r.preloaded(r.DB).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByIDTx(tx *gorm.DB, id uint) (*entity.Order, error) {
	var o entity.Order
	if err := tx.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByOrderNumber(orderNumber string) (*entity.Order, error) {
	var o entity.Order
	if err := r.preloaded(r.DB).Where("order_number = ?", orderNumber).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByPaymentIntent(intentID string) (*entity.Order, error) {
	var o entity.Order
	if err := r.DB.Where("payment_intent_id = ?", intentID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

type OrderFilter struct {
	UserID            uint // non-zero restricts to a customer's own orders
	Status            entity.OrderStatus
	PaymentStatus     entity.PaymentStatus
	OrderType         string
	AssignedToStaffID uint
	Search            string // matches order number or item name
	StartDate         *time.Time
	EndDate           *time.Time
	Page, Limit       int
}

func (r *OrderRepository) List(f OrderFilter) ([]entity.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 20
	}

	q := r.DB.Model(&entity.Order{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.OrderType != "" {
		q = q.Where("order_type = ?", f.OrderType)
	}
	if f.AssignedToStaffID != 0 {
		q = q.Where("assigned_to_staff_id = ?", f.AssignedToStaffID)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}
	if f.Search != "" {
		q = q.Where(
			"order_number LIKE ? OR id IN (SELECT order_id FROM order_items WHERE name LIKE ?)",
			"%"+f.Search+"%", "%"+f.Search+"%",
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []entity.Order
	err := r.preloaded(q).
		Order("id DESC").Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&orders).Error
	return orders, total, err
}

// KitchenList returns the active queue for the kitchen display.
func (r *OrderRepository) KitchenList(assignedToStaffID uint, page, limit int) ([]entity.Order, int64, error) {
	f := OrderFilter{AssignedToStaffID: assignedToStaffID, Page: page, Limit: limit}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	q := r.DB.Model(&entity.Order{}).
		Where("status IN ?", []entity.OrderStatus{
			entity.OrderPending, entity.OrderConfirmed, entity.OrderPreparing, entity.OrderReady,
		})
	if f.AssignedToStaffID != 0 {
		q = q.Where("assigned_to_staff_id = ?", f.AssignedToStaffID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []entity.Order
	err := r.preloaded(q).
		Order("id").Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&orders).Error
	return orders, total, err
}

// UpdateStatusGuard flips the status only when the current value still
// matches. Zero rows affected means the transition lost a race or was
// invalid; callers treat both as a rejected transition.
func (r *OrderRepository) UpdateStatusGuard(tx *gorm.DB, orderID uint, from, to entity.OrderStatus) (int64, error) {
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// PaymentStatusGuard is the webhook idempotence gate: the payment status
// moves only from one of the expected prior states.
func (r *OrderRepository) PaymentStatusGuard(tx *gorm.DB, orderID uint, from []entity.PaymentStatus, to entity.PaymentStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{"payment_status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND payment_status IN ?", orderID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *OrderRepository) AppendTimeline(tx *gorm.DB, e *entity.OrderTimelineEntry) error {
	return tx.Create(e).Error
}

func (r *OrderRepository) UpdateFields(tx *gorm.DB, orderID uint, updates map[string]any) error {
	return tx.Model(&entity.Order{}).Where("id = ?", orderID).Updates(updates).Error
}

func (r *OrderRepository) Delete(tx *gorm.DB, orderID uint) error {
	if err := tx.Exec(`
		DELETE FROM order_item_selections
		 WHERE order_item_id IN (SELECT id FROM order_items WHERE order_id = ?)
	`, orderID).Error; err != nil {
		return err
	}
	if err := tx.Where("order_id = ?", orderID).Delete(&entity.OrderItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("order_id = ?", orderID).Delete(&entity.OrderTimelineEntry{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Delete(&entity.Order{}, orderID).Error
}
