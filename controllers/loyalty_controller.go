package controllers

import (
	"time"

	"github.com/uchikuch/restaurant-pos-system/pkg/resp"
	"github.com/uchikuch/restaurant-pos-system/repository"
	"github.com/uchikuch/restaurant-pos-system/services"
	"github.com/uchikuch/restaurant-pos-system/utils"

	"github.com/gin-gonic/gin"
)

type LoyaltyController struct {
	Loyalty *services.LoyaltyService
}

func NewLoyaltyController(loyalty *services.LoyaltyService) *LoyaltyController {
	return &LoyaltyController{Loyalty: loyalty}
}

func (lc *LoyaltyController) GetAccount(c *gin.Context) {
	acc, err := lc.Loyalty.GetAccount(utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{
		"account":  acc,
		"nextTier": services.NextTier(acc.Tier),
	})
}

func (lc *LoyaltyController) Transactions(c *gin.Context) {
	f := repository.LoyaltyTransactionFilter{
		Type:  c.Query("type"),
		Page:  atoiDefault(c.Query("page"), 1),
		Limit: atoiDefault(c.Query("limit"), 20),
	}
	if t, err := time.Parse(time.RFC3339, c.Query("startDate")); err == nil {
		f.StartDate = &t
	}
	if t, err := time.Parse(time.RFC3339, c.Query("endDate")); err == nil {
		f.EndDate = &t
	}
	txns, total, err := lc.Loyalty.ListTransactions(utils.CurrentUserID(c), f)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"transactions": txns, "total": total, "page": f.Page, "limit": f.Limit})
}

type BonusPointsReq struct {
	UserID      uint       `json:"userId" binding:"required"`
	Points      int        `json:"points" binding:"required"`
	Description string     `json:"description" binding:"required"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

func (lc *LoyaltyController) AddBonus(c *gin.Context) {
	var req BonusPointsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	acc, err := lc.Loyalty.AddBonusPoints(req.UserID, req.Points, req.Description, req.ExpiresAt)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, acc)
}

func (lc *LoyaltyController) Stats(c *gin.Context) {
	stats, err := lc.Loyalty.Stats()
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, stats)
}
