package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"inkwell-api/middleware"
	"inkwell-api/models"
)

func setupUserRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupDB(t)
	uc := NewUserController(db)

	r := gin.New()
	protected := r.Group("/", middleware.AuthMiddleware(db, testSecret))
	protected.GET("/users", middleware.RequireRoles(models.RoleAdmin), uc.GetUsers)
	protected.GET("/users/:id", uc.GetUser)
	protected.PUT("/users/:id", uc.UpdateUser)
	protected.DELETE("/users/:id", middleware.RequireRoles(models.RoleAdmin), uc.DeleteUser)

	return r, db
}

func TestUpdateUserRoleChangeIsAdminOnly(t *testing.T) {
	r, db := setupUserRouter(t)

	admin := createUser(t, db, "admin", models.RoleAdmin)
	reader := createUser(t, db, "reader", models.RoleReader)

	editor := models.RoleEditor
	path := fmt.Sprintf("/users/%d", reader.ID)

	// Owners may edit their profile but not promote themselves.
	w := doJSON(t, r, http.MethodPut, path, reader, UpdateUserRequest{Role: &editor})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var stored models.User
	require.NoError(t, db.First(&stored, reader.ID).Error)
	assert.Equal(t, models.RoleReader, stored.Role)

	w = doJSON(t, r, http.MethodPut, path, admin, UpdateUserRequest{Role: &editor})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&stored, reader.ID).Error)
	assert.Equal(t, models.RoleEditor, stored.Role)

	bad := models.Role("owner")
	w = doJSON(t, r, http.MethodPut, path, admin, UpdateUserRequest{Role: &bad})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserRejectsPasswordChanges(t *testing.T) {
	r, db := setupUserRouter(t)

	reader := createUser(t, db, "reader", models.RoleReader)

	password := "New-Pass1"
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/users/%d", reader.ID), reader,
		UpdateUserRequest{Password: &password})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "password reset")
}

func TestUpdateUserOwnership(t *testing.T) {
	r, db := setupUserRouter(t)

	alice := createUser(t, db, "alice", models.RoleReader)
	bob := createUser(t, db, "bob", models.RoleReader)

	bio := "hello"
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/users/%d", alice.ID), bob,
		UpdateUserRequest{Bio: &bio})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/users/%d", alice.ID), alice,
		UpdateUserRequest{Bio: &bio})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteUserAdminOnlyAndNeverSelf(t *testing.T) {
	r, db := setupUserRouter(t)

	admin := createUser(t, db, "admin", models.RoleAdmin)
	reader := createUser(t, db, "reader", models.RoleReader)

	// Non-admins never reach the handler.
	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/users/%d", admin.ID), reader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admins cannot delete their own account.
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/users/%d", admin.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&models.User{}).Where("id = ?", admin.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/users/%d", reader.ID), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	db.Model(&models.User{}).Where("id = ?", reader.ID).Count(&count)
	assert.Zero(t, count)
}

func TestGetUsersIsAdminOnly(t *testing.T) {
	r, db := setupUserRouter(t)

	admin := createUser(t, db, "admin", models.RoleAdmin)
	reader := createUser(t, db, "reader", models.RoleReader)

	w := doJSON(t, r, http.MethodGet, "/users", reader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data  []models.User `json:"data"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Total)
}
