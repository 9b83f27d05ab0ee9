package controllers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"inkwell-api/config"
	"inkwell-api/middleware"
	"inkwell-api/models"
)

func setupMediaRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupDB(t)
	require.NoError(t, db.AutoMigrate(&models.Media{}))

	cfg := &config.Upload{
		Dir:          t.TempDir(),
		MaxSize:      1 << 20,
		AllowedTypes: []string{"image/png"},
	}
	mc := NewMediaController(db, cfg)

	r := gin.New()
	protected := r.Group("/", middleware.AuthMiddleware(db, testSecret))
	protected.GET("/media/:id", mc.GetMedia)
	protected.DELETE("/media/:id", mc.DeleteMedia)

	return r, db
}

func createMedia(t *testing.T, db *gorm.DB, owner *models.User, dir string) *models.Media {
	t.Helper()
	media := models.Media{
		OriginalName: "photo.png",
		StoredName:   "stored.png",
		Path:         filepath.Join(dir, "stored.png"),
		MimeType:     "image/png",
		Size:         128,
		UserID:       owner.ID,
	}
	require.NoError(t, db.Create(&media).Error)
	return &media
}

func TestDeleteMediaBlockedWhileReferenced(t *testing.T) {
	r, db := setupMediaRouter(t)

	owner := createUser(t, db, "owner", models.RoleAuthor)
	media := createMedia(t, db, owner, t.TempDir())

	post := models.Post{Title: "Uses Image", Slug: "uses-image", Content: "body",
		Status: models.PostPublished, AuthorID: owner.ID}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, db.Create(&models.PostMedia{PostID: post.ID, MediaID: media.ID}).Error)

	path := fmt.Sprintf("/media/%d", media.ID)

	w := doJSON(t, r, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "used in posts")

	var count int64
	db.Model(&models.Media{}).Where("id = ?", media.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	// Dropping the reference unblocks deletion.
	require.NoError(t, db.Where("media_id = ?", media.ID).Delete(&models.PostMedia{}).Error)

	w = doJSON(t, r, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	db.Model(&models.Media{}).Where("id = ?", media.ID).Count(&count)
	assert.Zero(t, count)
}

func TestMediaAccessControl(t *testing.T) {
	r, db := setupMediaRouter(t)

	owner := createUser(t, db, "owner", models.RoleAuthor)
	stranger := createUser(t, db, "stranger", models.RoleAuthor)
	editor := createUser(t, db, "editor", models.RoleEditor)
	media := createMedia(t, db, owner, t.TempDir())

	path := fmt.Sprintf("/media/%d", media.ID)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, path, owner, nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, path, editor, nil).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(t, r, http.MethodGet, path, stranger, nil).Code)

	assert.Equal(t, http.StatusForbidden, doJSON(t, r, http.MethodDelete, path, stranger, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/media/9999", editor, nil).Code)
}
