package controllers

import (
	"errors"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/resp"
	"github.com/uchikuch/restaurant-pos-system/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminController covers user administration.
type AdminController struct {
	Users *repository.UserRepository
}

func NewAdminController(users *repository.UserRepository) *AdminController {
	return &AdminController{Users: users}
}

func (ac *AdminController) ListUsers(c *gin.Context) {
	users, total, err := ac.Users.List(c.Query("role"), atoiDefault(c.Query("page"), 1), atoiDefault(c.Query("limit"), 20))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"users": users, "total": total})
}

type UpdateUserReq struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

func (ac *AdminController) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := ac.Users.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resp.BadRequest(c, "user not found")
		return
	}
	if err != nil {
		resp.Error(c, err)
		return
	}

	var req UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if req.Role != nil {
		switch *req.Role {
		case entity.RoleCustomer, entity.RoleKitchenStaff, entity.RoleAdmin:
			user.Role = *req.Role
		default:
			resp.BadRequest(c, "unknown role")
			return
		}
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := ac.Users.Save(user); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, user)
}
