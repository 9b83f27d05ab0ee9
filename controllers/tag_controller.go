package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkwell-api/models"
	"inkwell-api/utils"
)

type TagController struct {
	db *gorm.DB
}

func NewTagController(db *gorm.DB) *TagController {
	return &TagController{db: db}
}

type TagRequest struct {
	Name string `json:"name" binding:"required"`
}

func (tc *TagController) GetTags(c *gin.Context) {
	query := tc.db.Model(&models.Tag{})
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var tags []models.Tag
	if err := query.Order("name ASC").Find(&tags).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch tags", err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

func (tc *TagController) GetTag(c *gin.Context) {
	var tag models.Tag
	if err := tc.db.First(&tag, "id = ?", c.Param("id")).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Tag not found")
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (tc *TagController) CreateTag(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Tag name is required")
		return
	}

	tag := models.Tag{
		Name: req.Name,
		Slug: utils.Slugify(req.Name),
	}
	if err := tc.db.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.SendError(c, http.StatusBadRequest, "Tag already exists")
			return
		}
		utils.SendInternalError(c, "Failed to create tag", err)
		return
	}

	c.JSON(http.StatusCreated, tag)
}

func (tc *TagController) UpdateTag(c *gin.Context) {
	var tag models.Tag
	if err := tc.db.First(&tag, "id = ?", c.Param("id")).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Tag not found")
		return
	}

	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Tag name is required")
		return
	}

	if req.Name != tag.Name {
		err := tc.db.Model(&tag).Updates(map[string]interface{}{
			"name": req.Name,
			"slug": utils.Slugify(req.Name),
		}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				utils.SendError(c, http.StatusBadRequest, "Tag name already exists")
				return
			}
			utils.SendInternalError(c, "Failed to update tag", err)
			return
		}
	}

	c.JSON(http.StatusOK, tag)
}

func (tc *TagController) DeleteTag(c *gin.Context) {
	var tag models.Tag
	if err := tc.db.First(&tag, "id = ?", c.Param("id")).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Tag not found")
		return
	}

	err := tc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", tag.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		utils.SendInternalError(c, "Failed to delete tag", err)
		return
	}

	utils.SendMessage(c, "Tag removed")
}
