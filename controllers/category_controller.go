package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkwell-api/models"
	"inkwell-api/utils"
)

type CategoryController struct {
	db *gorm.DB
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

type CategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

func (cc *CategoryController) GetCategories(c *gin.Context) {
	query := cc.db.Model(&models.Category{})
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var categories []models.Category
	if err := query.Order("name ASC").Find(&categories).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch categories", err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (cc *CategoryController) GetCategory(c *gin.Context) {
	var category models.Category
	if err := cc.db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Category not found")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Category name is required")
		return
	}

	category := models.Category{
		Name:        req.Name,
		Slug:        utils.Slugify(req.Name),
		Description: req.Description,
	}
	if err := cc.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.SendError(c, http.StatusBadRequest, "Category already exists")
			return
		}
		utils.SendInternalError(c, "Failed to create category", err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	var category models.Category
	if err := cc.db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Category not found")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Category name is required")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != category.Name {
		updates["name"] = req.Name
		updates["slug"] = utils.Slugify(req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := cc.db.Model(&category).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				utils.SendError(c, http.StatusBadRequest, "Category name already exists")
				return
			}
			utils.SendInternalError(c, "Failed to update category", err)
			return
		}
	}

	c.JSON(http.StatusOK, category)
}

func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	var category models.Category
	if err := cc.db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Category not found")
		return
	}

	if err := cc.db.Delete(&category).Error; err != nil {
		utils.SendInternalError(c, "Failed to delete category", err)
		return
	}

	utils.SendMessage(c, "Category removed")
}
