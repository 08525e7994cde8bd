package controllers

import (
	"strconv"

	"github.com/uchikuch/restaurant-pos-system/pkg/resp"
	"github.com/uchikuch/restaurant-pos-system/services"
	"github.com/uchikuch/restaurant-pos-system/utils"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	Carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

// owner resolves the cart owner: the authenticated user when logged in,
// otherwise the guest session id (minted on first touch).
func (cc *CartController) owner(c *gin.Context) services.CartOwner {
	if uid := utils.CurrentUserID(c); uid != 0 {
		return services.CartOwner{UserID: &uid}
	}
	return services.CartOwner{SessionID: utils.SessionID(c)}
}

func (cc *CartController) Get(c *gin.Context) {
	cart, err := cc.Carts.GetOrCreate(cc.owner(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

func (cc *CartController) AddItem(c *gin.Context) {
	var req services.AddItemIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	cart, err := cc.Carts.AddItem(cc.owner(c), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

func (cc *CartController) UpdateItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 32)
	if err != nil {
		resp.BadRequest(c, "invalid item id")
		return
	}
	var req services.UpdateItemIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	cart, err := cc.Carts.UpdateItem(cc.owner(c), uint(itemID), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 32)
	if err != nil {
		resp.BadRequest(c, "invalid item id")
		return
	}
	cart, err := cc.Carts.RemoveItem(cc.owner(c), uint(itemID))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

func (cc *CartController) UpdateSettings(c *gin.Context) {
	var req services.UpdateCartSettingsIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	cart, err := cc.Carts.UpdateSettings(cc.owner(c), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

func (cc *CartController) Clear(c *gin.Context) {
	cart, err := cc.Carts.Clear(cc.owner(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, cart)
}

func (cc *CartController) Delete(c *gin.Context) {
	if err := cc.Carts.Delete(cc.owner(c)); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": true})
}
