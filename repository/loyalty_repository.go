package repository

import (
	"errors"
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"

	"gorm.io/gorm"
)

type LoyaltyRepository struct{ DB *gorm.DB }

func NewLoyaltyRepository(db *gorm.DB) *LoyaltyRepository { return &LoyaltyRepository{DB: db} }

func (r *LoyaltyRepository) GetOrCreate(userID uint) (*entity.LoyaltyAccount, error) {
	return r.GetOrCreateTx(r.DB, userID)
}

// GetOrCreateTx runs on the caller's handle so reads inside an open
// transaction stay on that transaction's connection.
func (r *LoyaltyRepository) GetOrCreateTx(tx *gorm.DB, userID uint) (*entity.LoyaltyAccount, error) {
	var a entity.LoyaltyAccount
	err := tx.Where("user_id = ?", userID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		a = entity.LoyaltyAccount{UserID: userID, Tier: entity.TierBronze}
		if err := tx.Create(&a).Error; err != nil {
			return nil, err
		}
		return &a, nil
	}
	return &a, err
}

func (r *LoyaltyRepository) GetByUserIDTx(tx *gorm.DB, userID uint) (*entity.LoyaltyAccount, error) {
	var a entity.LoyaltyAccount
	if err := tx.Where("user_id = ?", userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *LoyaltyRepository) CreateTransaction(tx *gorm.DB, t *entity.LoyaltyTransaction) error {
	return tx.Create(t).Error
}

func (r *LoyaltyRepository) UpdateAccount(tx *gorm.DB, accountID uint, updates map[string]any) error {
	return tx.Model(&entity.LoyaltyAccount{}).Where("id = ?", accountID).Updates(updates).Error
}

// GuardedRedeem decrements the balance only when enough points remain, so
// two concurrent redemptions cannot both drain the same points.
func (r *LoyaltyRepository) GuardedRedeem(tx *gorm.DB, accountID uint, points int) (int64, error) {
	res := tx.Model(&entity.LoyaltyAccount{}).
		Where("id = ? AND total_points >= ?", accountID, points).
		Updates(map[string]any{
			"total_points": gorm.Expr("total_points - ?", points),
			"points_used":  gorm.Expr("points_used + ?", points),
		})
	return res.RowsAffected, res.Error
}

// ExpirableTransactions returns earned/bonus rows whose expiry has passed
// and that have not yet been offset.
func (r *LoyaltyRepository) ExpirableTransactions(tx *gorm.DB, accountID uint, now time.Time) ([]entity.LoyaltyTransaction, error) {
	var out []entity.LoyaltyTransaction
	err := tx.Where(
		"account_id = ? AND type IN ? AND expires_at IS NOT NULL AND expires_at <= ? AND offset_applied = ?",
		accountID, []string{entity.LoyaltyEarned, entity.LoyaltyBonus}, now, false,
	).Find(&out).Error
	return out, err
}

func (r *LoyaltyRepository) MarkOffset(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&entity.LoyaltyTransaction{}).Where("id IN ?", ids).Update("offset_applied", true).Error
}

// AvailablePoints computes redeemable balance: unexpired earned/bonus points
// minus lifetime points used.
func (r *LoyaltyRepository) AvailablePoints(tx *gorm.DB, accountID uint, now time.Time) (int, error) {
	var earned int64
	err := tx.Model(&entity.LoyaltyTransaction{}).
		Where("account_id = ? AND type IN ? AND (expires_at IS NULL OR expires_at > ?)",
			accountID, []string{entity.LoyaltyEarned, entity.LoyaltyBonus}, now).
		Select("COALESCE(SUM(points), 0)").Scan(&earned).Error
	if err != nil {
		return 0, err
	}

	var a entity.LoyaltyAccount
	if err := tx.Select("points_used").First(&a, accountID).Error; err != nil {
		return 0, err
	}
	return int(earned) - a.PointsUsed, nil
}

type LoyaltyTransactionFilter struct {
	Type        string
	StartDate   *time.Time
	EndDate     *time.Time
	Page, Limit int
}

func (r *LoyaltyRepository) ListTransactions(accountID uint, f LoyaltyTransactionFilter) ([]entity.LoyaltyTransaction, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 20
	}

	q := r.DB.Model(&entity.LoyaltyTransaction{}).Where("account_id = ?", accountID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []entity.LoyaltyTransaction
	err := q.Order("id DESC").Limit(f.Limit).Offset((f.Page - 1) * f.Limit).Find(&rows).Error
	return rows, total, err
}

type LoyaltyStats struct {
	TotalAccounts       int64                        `json:"totalAccounts"`
	TotalPointsIssued   int64                        `json:"totalPointsIssued"`
	TotalPointsRedeemed int64                        `json:"totalPointsRedeemed"`
	TierDistribution    map[entity.LoyaltyTier]int64 `json:"tierDistribution"`
}

func (r *LoyaltyRepository) Stats() (*LoyaltyStats, error) {
	var out LoyaltyStats
	m := r.DB.Model(&entity.LoyaltyAccount{})
	if err := m.Count(&out.TotalAccounts).Error; err != nil {
		return nil, err
	}
	row := r.DB.Model(&entity.LoyaltyAccount{}).
		Select("COALESCE(SUM(points_earned), 0), COALESCE(SUM(points_used), 0)").Row()
	if err := row.Scan(&out.TotalPointsIssued, &out.TotalPointsRedeemed); err != nil {
		return nil, err
	}

	var rows []struct {
		Tier  entity.LoyaltyTier
		Count int64
	}
	err := r.DB.Model(&entity.LoyaltyAccount{}).
		Select("tier, COUNT(*) AS count").Group("tier").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out.TierDistribution = make(map[entity.LoyaltyTier]int64, len(rows))
	for _, r := range rows {
		out.TierDistribution[r.Tier] = r.Count
	}
	return &out, nil
}
