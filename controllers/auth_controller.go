package controllers

import (
	"log"

	"github.com/uchikuch/restaurant-pos-system/pkg/resp"
	"github.com/uchikuch/restaurant-pos-system/services"
	"github.com/uchikuch/restaurant-pos-system/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Auth  *services.AuthService
	Carts *services.CartService
}

func NewAuthController(auth *services.AuthService, carts *services.CartService) *AuthController {
	return &AuthController{Auth: auth, Carts: carts}
}

func (ac *AuthController) Register(c *gin.Context) {
	var req services.RegisterIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	out, err := ac.Auth.Register(&req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	ac.adoptGuestCart(c, out.User.ID)
	resp.Created(c, out)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req services.LoginIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	out, err := ac.Auth.Login(&req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	ac.adoptGuestCart(c, out.User.ID)
	resp.OK(c, out)
}

// adoptGuestCart folds a pre-login guest cart into the account. Losing the
// merge must not fail the login.
func (ac *AuthController) adoptGuestCart(c *gin.Context, userID uint) {
	sessionID := c.GetHeader("X-Session-Id")
	if sessionID == "" {
		return
	}
	if err := ac.Carts.MergeGuestCart(sessionID, userID); err != nil {
		log.Printf("guest cart merge failed for user %d: %v", userID, err)
	}
}

func (ac *AuthController) Profile(c *gin.Context) {
	user, err := ac.Auth.Profile(utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, user)
}

func (ac *AuthController) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileIn
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	user, err := ac.Auth.UpdateProfile(utils.CurrentUserID(c), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, user)
}
