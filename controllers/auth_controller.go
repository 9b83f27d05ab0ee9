package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell-api/middleware"
	"inkwell-api/models"
	"inkwell-api/utils"
)

type AuthController struct {
	db        *gorm.DB
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthController(db *gorm.DB, jwtSecret string, jwtExpiry time.Duration) *AuthController {
	return &AuthController{
		db:        db,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type RegisterRequest struct {
	Username string      `json:"username" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=6"`
	Role     models.Role `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Token    string      `json:"token"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Please provide all required fields")
		return
	}

	if !utils.IsValidUsername(req.Username) {
		utils.SendError(c, http.StatusBadRequest, "Username must be 3-50 characters of letters, numbers, '-' or '_'")
		return
	}
	if !utils.IsValidPassword(req.Password) {
		utils.SendError(c, http.StatusBadRequest, "Password is too weak")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleReader
	}
	if !role.Valid() {
		utils.SendError(c, http.StatusBadRequest, "Unknown role")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.SendInternalError(c, "Failed to hash password", err)
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := ac.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.SendError(c, http.StatusBadRequest, "Username or email already exists")
			return
		}
		utils.SendInternalError(c, "Failed to create user", err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, ac.jwtSecret, ac.jwtExpiry)
	if err != nil {
		utils.SendInternalError(c, "Failed to generate token", err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Token:    token,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	var user models.User
	if err := ac.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		utils.SendError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.SendError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := middleware.GenerateToken(user.ID, ac.jwtSecret, ac.jwtExpiry)
	if err != nil {
		utils.SendInternalError(c, "Failed to generate token", err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Token:    token,
	})
}

// Me returns the authenticated user's own record.
func (ac *AuthController) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.SendError(c, http.StatusUnauthorized, "Not authorized")
		return
	}
	c.JSON(http.StatusOK, user)
}
