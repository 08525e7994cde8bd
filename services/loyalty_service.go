package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
	"github.com/uchikuch/restaurant-pos-system/repository"

	"gorm.io/gorm"
)

const (
	// PointsPerDollar is the base earn rate before the tier multiplier.
	PointsPerDollar = 10

	// PointExpiry is how long earned and bonus points stay redeemable.
	PointExpiry = 365 * 24 * time.Hour

	// RedemptionCentsPerPoint: 100 points buy a $1.00 discount, so one
	// point is worth exactly one cent.
	RedemptionCentsPerPoint = 1
)

// tierThresholds are lifetime points-earned floors for each tier.
var tierThresholds = []struct {
	Tier       entity.LoyaltyTier
	MinEarned  int
	Multiplier float64
}{
	{entity.TierBronze, 0, 1.0},
	{entity.TierSilver, 500, 1.2},
	{entity.TierGold, 1500, 1.5},
	{entity.TierPlatinum, 3000, 2.0},
}

type LoyaltyService struct {
	DB   *gorm.DB
	Repo *repository.LoyaltyRepository
}

func NewLoyaltyService(db *gorm.DB, repo *repository.LoyaltyRepository) *LoyaltyService {
	return &LoyaltyService{DB: db, Repo: repo}
}

// GetAccount returns the user's account, creating it on first touch and
// offsetting any points that expired since the last read.
func (s *LoyaltyService) GetAccount(userID uint) (*entity.LoyaltyAccount, error) {
	acc, err := s.Repo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return s.expirePoints(tx, acc)
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// expirePoints writes an offsetting expired transaction for every earned or
// bonus transaction past its expiry that has not been offset yet, then marks
// the source rows so a later read cannot offset them twice.
func (s *LoyaltyService) expirePoints(tx *gorm.DB, acc *entity.LoyaltyAccount) error {
	expired, err := s.Repo.ExpirableTransactions(tx, acc.ID, time.Now())
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	total := 0
	ids := make([]uint, 0, len(expired))
	for _, t := range expired {
		total += t.Points
		ids = append(ids, t.ID)
		offset := entity.LoyaltyTransaction{
			AccountID:   acc.ID,
			Type:        entity.LoyaltyExpired,
			Points:      -t.Points,
			Description: fmt.Sprintf("%d points expired", t.Points),
		}
		if err := s.Repo.CreateTransaction(tx, &offset); err != nil {
			return err
		}
	}
	if err := s.Repo.MarkOffset(tx, ids); err != nil {
		return err
	}

	// The balance may briefly go negative when an already-redeemed batch
	// expires; the ledger stays the signed sum of its transactions.
	acc.TotalPoints -= total
	return s.Repo.UpdateAccount(tx, acc.ID, map[string]any{"total_points": acc.TotalPoints})
}

// EarnPoints awards points for a completed order based on the amount paid
// and the account's tier at the time of earning. It returns the points
// credited.
func (s *LoyaltyService) EarnPoints(userID, orderID uint, amountCents int64) (int, error) {
	var points int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		points, err = s.EarnPointsTx(tx, userID, orderID, amountCents)
		return err
	})
	return points, err
}

func (s *LoyaltyService) EarnPointsTx(tx *gorm.DB, userID, orderID uint, amountCents int64) (int, error) {
	acc, err := s.Repo.GetOrCreateTx(tx, userID)
	if err != nil {
		return 0, err
	}

	base := int(amountCents * PointsPerDollar / 100)
	points := int(math.Floor(float64(base) * tierMultiplier(acc.Tier)))
	if points <= 0 {
		return 0, nil
	}

	expires := time.Now().Add(PointExpiry)
	txn := entity.LoyaltyTransaction{
		AccountID:   acc.ID,
		Type:        entity.LoyaltyEarned,
		Points:      points,
		OrderID:     &orderID,
		Description: fmt.Sprintf("Earned on order #%d", orderID),
		ExpiresAt:   &expires,
	}
	if err := s.Repo.CreateTransaction(tx, &txn); err != nil {
		return 0, err
	}

	acc.TotalPoints += points
	acc.PointsEarned += points
	s.applyTier(acc)
	updates := map[string]any{
		"total_points":  acc.TotalPoints,
		"points_earned": acc.PointsEarned,
		"tier":          acc.Tier,
		"tier_progress": acc.TierProgress,
	}
	if err := s.Repo.UpdateAccount(tx, acc.ID, updates); err != nil {
		return 0, err
	}
	return points, nil
}

// RedeemPoints converts points to a discount. Redemption only ever goes
// through the guarded decrement so two concurrent redemptions can never
// spend the same points twice.
func (s *LoyaltyService) RedeemPoints(userID, orderID uint, points int) (int64, error) {
	var discount int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		discount, err = s.RedeemPointsTx(tx, userID, orderID, points)
		return err
	})
	return discount, err
}

func (s *LoyaltyService) RedeemPointsTx(tx *gorm.DB, userID, orderID uint, points int) (int64, error) {
	if points <= 0 {
		return 0, apperr.New(apperr.KindValidation, "points to redeem must be positive")
	}

	acc, err := s.Repo.GetByUserIDTx(tx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.New(apperr.KindInsufficientPoints, "no loyalty account")
	}
	if err != nil {
		return 0, err
	}

	available, err := s.Repo.AvailablePoints(tx, acc.ID, time.Now())
	if err != nil {
		return 0, err
	}
	if available < points {
		return 0, apperr.Newf(apperr.KindInsufficientPoints, "insufficient points: have %d, need %d", available, points)
	}

	affected, err := s.Repo.GuardedRedeem(tx, acc.ID, points)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, apperr.Newf(apperr.KindInsufficientPoints, "insufficient points: need %d", points)
	}

	txn := entity.LoyaltyTransaction{
		AccountID:   acc.ID,
		Type:        entity.LoyaltyRedeemed,
		Points:      -points,
		OrderID:     &orderID,
		Description: fmt.Sprintf("Redeemed on order #%d", orderID),
	}
	if err := s.Repo.CreateTransaction(tx, &txn); err != nil {
		return 0, err
	}
	return RedemptionValueCents(points), nil
}

// AddBonusPoints credits promotional points. Bonus points count toward
// tier progress exactly like order earnings and expire like them, unless
// the caller pins a different expiry.
func (s *LoyaltyService) AddBonusPoints(userID uint, points int, description string, expiresAt *time.Time) (*entity.LoyaltyAccount, error) {
	if points <= 0 {
		return nil, apperr.New(apperr.KindValidation, "bonus points must be positive")
	}

	var acc *entity.LoyaltyAccount
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		acc, err = s.Repo.GetOrCreateTx(tx, userID)
		if err != nil {
			return err
		}

		expires := time.Now().Add(PointExpiry)
		if expiresAt != nil {
			expires = *expiresAt
		}
		txn := entity.LoyaltyTransaction{
			AccountID:   acc.ID,
			Type:        entity.LoyaltyBonus,
			Points:      points,
			Description: description,
			ExpiresAt:   &expires,
		}
		if err := s.Repo.CreateTransaction(tx, &txn); err != nil {
			return err
		}

		acc.TotalPoints += points
		acc.PointsEarned += points
		s.applyTier(acc)
		return s.Repo.UpdateAccount(tx, acc.ID, map[string]any{
			"total_points":  acc.TotalPoints,
			"points_earned": acc.PointsEarned,
			"tier":          acc.Tier,
			"tier_progress": acc.TierProgress,
		})
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *LoyaltyService) ListTransactions(userID uint, filter repository.LoyaltyTransactionFilter) ([]entity.LoyaltyTransaction, int64, error) {
	acc, err := s.Repo.GetOrCreate(userID)
	if err != nil {
		return nil, 0, err
	}
	return s.Repo.ListTransactions(acc.ID, filter)
}

func (s *LoyaltyService) Stats() (*repository.LoyaltyStats, error) {
	return s.Repo.Stats()
}

// RedemptionValueCents is the discount a point balance buys.
func RedemptionValueCents(points int) int64 {
	return int64(points) * RedemptionCentsPerPoint
}

func tierMultiplier(tier entity.LoyaltyTier) float64 {
	for _, t := range tierThresholds {
		if t.Tier == tier {
			return t.Multiplier
		}
	}
	return 1.0
}

// applyTier recomputes the tier and the percentage progress toward the
// next one from lifetime points earned. Tiers never go down.
func (s *LoyaltyService) applyTier(acc *entity.LoyaltyAccount) {
	idx := 0
	for i, t := range tierThresholds {
		if acc.PointsEarned >= t.MinEarned {
			idx = i
		}
	}
	acc.Tier = tierThresholds[idx].Tier

	if idx == len(tierThresholds)-1 {
		acc.TierProgress = 100
		return
	}
	lo := tierThresholds[idx].MinEarned
	hi := tierThresholds[idx+1].MinEarned
	acc.TierProgress = float64(acc.PointsEarned-lo) / float64(hi-lo) * 100
}

// NextTier returns the tier above the account's current one, or empty when
// already at the top.
func NextTier(tier entity.LoyaltyTier) entity.LoyaltyTier {
	for i, t := range tierThresholds {
		if t.Tier == tier && i+1 < len(tierThresholds) {
			return tierThresholds[i+1].Tier
		}
	}
	return ""
}
