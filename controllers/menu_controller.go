package controllers

import (
	"errors"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
	"github.com/uchikuch/restaurant-pos-system/pkg/resp"
	"github.com/uchikuch/restaurant-pos-system/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MenuController struct {
	Repo *repository.MenuRepository
}

func NewMenuController(repo *repository.MenuRepository) *MenuController {
	return &MenuController{Repo: repo}
}

func (mc *MenuController) List(c *gin.Context) {
	f := repository.MenuItemFilter{
		CategoryID:    uint(atoiDefault(c.Query("categoryId"), 0)),
		Search:        c.Query("search"),
		AvailableOnly: c.Query("available") == "true",
		Page:          atoiDefault(c.Query("page"), 1),
		Limit:         atoiDefault(c.Query("limit"), 20),
	}
	items, total, err := mc.Repo.ListMenuItems(f)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"items": items, "total": total, "page": f.Page, "limit": f.Limit})
}

func (mc *MenuController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	item, err := mc.Repo.GetMenuItem(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resp.Error(c, apperr.New(apperr.KindNotFound, "menu item not found"))
		return
	}
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, item)
}

func (mc *MenuController) Create(c *gin.Context) {
	var item entity.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if item.Name == "" || item.CategoryID == 0 {
		resp.BadRequest(c, "name and categoryId are required")
		return
	}
	if err := mc.Repo.CreateMenuItem(&item); err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, item)
}

func (mc *MenuController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	existing, err := mc.Repo.GetMenuItem(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resp.Error(c, apperr.New(apperr.KindNotFound, "menu item not found"))
		return
	}
	if err != nil {
		resp.Error(c, err)
		return
	}

	var item entity.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	item.ID = existing.ID
	if err := mc.Repo.SaveMenuItem(&item); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, item)
}

func (mc *MenuController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := mc.Repo.DeleteMenuItem(id); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": true})
}
