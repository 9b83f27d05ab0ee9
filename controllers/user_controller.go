package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkwell-api/middleware"
	"inkwell-api/models"
	"inkwell-api/utils"
)

type UserController struct {
	db *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

func (uc *UserController) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset := (page - 1) * limit

	var total int64
	uc.db.Model(&models.User{}).Count(&total)

	var users []models.User
	if err := uc.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch users", err)
		return
	}

	utils.SendPaginated(c, users, page, limit, total)
}

func (uc *UserController) GetUser(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	var user models.User
	if err := uc.db.First(&user, userID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "User not found")
		return
	}

	if err := utils.CheckOwnerOrAdmin(actor, user.ID); err != nil {
		utils.SendError(c, http.StatusForbidden, "Unauthorized access")
		return
	}

	c.JSON(http.StatusOK, user)
}

type UpdateUserRequest struct {
	Username         *string        `json:"username"`
	Email            *string        `json:"email"`
	Password         *string        `json:"password"`
	Role             *models.Role   `json:"role"`
	Bio              *string        `json:"bio"`
	SocialMediaLinks models.JSONMap `json:"social_media_links"`
}

func (uc *UserController) UpdateUser(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	var user models.User
	if err := uc.db.First(&user, userID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "User not found")
		return
	}

	if err := utils.CheckOwnerOrAdmin(actor, user.ID); err != nil {
		utils.SendError(c, http.StatusForbidden, "Unauthorized update")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Password != nil {
		utils.SendError(c, http.StatusBadRequest, "Use the password reset endpoint instead")
		return
	}

	// Role is mutable only by an admin actor.
	if req.Role != nil && actor.Role != models.RoleAdmin {
		utils.SendError(c, http.StatusForbidden, "Role modification requires admin privileges")
		return
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		if !utils.IsValidUsername(*req.Username) {
			utils.SendError(c, http.StatusBadRequest, "Invalid username")
			return
		}
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		if !utils.IsValidEmail(*req.Email) {
			utils.SendError(c, http.StatusBadRequest, "Invalid email")
			return
		}
		updates["email"] = *req.Email
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.SocialMediaLinks != nil {
		updates["social_media_links"] = req.SocialMediaLinks
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			utils.SendError(c, http.StatusBadRequest, "Unknown role")
			return
		}
		updates["role"] = *req.Role
	}

	if len(updates) > 0 {
		if err := uc.db.Model(&user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				utils.SendError(c, http.StatusBadRequest, "Username or email already exists")
				return
			}
			utils.SendInternalError(c, "Failed to update user", err)
			return
		}
	}

	c.JSON(http.StatusOK, user)
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	var user models.User
	if err := uc.db.First(&user, userID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "User not found")
		return
	}

	if actor.ID == user.ID {
		utils.SendError(c, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := uc.db.Delete(&user).Error; err != nil {
		utils.SendInternalError(c, "Failed to delete user", err)
		return
	}

	utils.SendMessage(c, "User account deleted successfully")
}
