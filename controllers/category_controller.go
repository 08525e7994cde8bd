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

type CategoryController struct {
	Repo *repository.MenuRepository
}

func NewCategoryController(repo *repository.MenuRepository) *CategoryController {
	return &CategoryController{Repo: repo}
}

func (cc *CategoryController) List(c *gin.Context) {
	categories, err := cc.Repo.ListCategories(c.Query("active") == "true")
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, categories)
}

func (cc *CategoryController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	category, err := cc.Repo.GetCategory(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resp.Error(c, apperr.New(apperr.KindNotFound, "category not found"))
		return
	}
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, category)
}

func (cc *CategoryController) Create(c *gin.Context) {
	var category entity.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if category.Name == "" {
		resp.BadRequest(c, "name is required")
		return
	}
	if err := cc.Repo.CreateCategory(&category); err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, category)
}

func (cc *CategoryController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	category, err := cc.Repo.GetCategory(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		resp.Error(c, apperr.New(apperr.KindNotFound, "category not found"))
		return
	}
	if err != nil {
		resp.Error(c, err)
		return
	}

	var in entity.Category
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	category.Name = in.Name
	category.Description = in.Description
	category.SortOrder = in.SortOrder
	category.IsActive = in.IsActive
	if err := cc.Repo.SaveCategory(category); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, category)
}

func (cc *CategoryController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := cc.Repo.DeleteCategory(id); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": true})
}
