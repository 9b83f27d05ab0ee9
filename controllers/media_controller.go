package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell-api/config"
	"inkwell-api/logger"
	"inkwell-api/middleware"
	"inkwell-api/models"
	"inkwell-api/utils"
)

type MediaController struct {
	db  *gorm.DB
	cfg *config.Upload
}

func NewMediaController(db *gorm.DB, cfg *config.Upload) *MediaController {
	return &MediaController{db: db, cfg: cfg}
}

// UploadMedia accepts a multipart "image" field, enforces the configured
// size/type allow-list, stores the file under a generated name, and derives
// a thumbnail alongside it.
func (mc *MediaController) UploadMedia(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	file, err := c.FormFile("image")
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	if file.Size > mc.cfg.MaxSize {
		utils.SendError(c, http.StatusBadRequest, "File size too large")
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if !mc.isAllowedType(mimeType) {
		utils.SendError(c, http.StatusBadRequest,
			fmt.Sprintf("Invalid file type. Only %v are allowed", mc.cfg.AllowedTypes))
		return
	}

	if err := os.MkdirAll(mc.cfg.Dir, 0o755); err != nil {
		utils.SendInternalError(c, "Failed to store file", err)
		return
	}

	storedName := uuid.New().String() + filepath.Ext(file.Filename)
	storedPath := filepath.Join(mc.cfg.Dir, storedName)

	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		utils.SendInternalError(c, "Failed to store file", err)
		return
	}

	img, err := imaging.Open(storedPath)
	if err != nil {
		os.Remove(storedPath)
		utils.SendError(c, http.StatusBadRequest, "Uploaded file is not a valid image")
		return
	}

	thumbPath := filepath.Join(mc.cfg.Dir, "thumb-"+storedName)
	thumb := imaging.Fit(img, 300, 300, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		os.Remove(storedPath)
		utils.SendInternalError(c, "Failed to generate thumbnail", err)
		return
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	media := models.Media{
		OriginalName: file.Filename,
		StoredName:   storedName,
		Path:         storedPath,
		MimeType:     mimeType,
		Size:         file.Size,
		Width:        &width,
		Height:       &height,
		UserID:       actor.ID,
	}
	if err := mc.db.Create(&media).Error; err != nil {
		os.Remove(storedPath)
		os.Remove(thumbPath)
		utils.SendInternalError(c, "Failed to upload media", err)
		return
	}

	mc.db.Preload("User").First(&media, media.ID)
	c.JSON(http.StatusCreated, media)
}

func (mc *MediaController) GetAllMedia(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset := (page - 1) * limit

	query := mc.db.Model(&models.Media{})
	if search := c.Query("search"); search != "" {
		query = query.Where("original_name ILIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var media []models.Media
	err := query.Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&media).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch media", err)
		return
	}

	utils.SendPaginated(c, media, page, limit, total)
}

func (mc *MediaController) GetMedia(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	var media models.Media
	if err := mc.db.Preload("User").First(&media, "id = ?", c.Param("id")).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Media not found")
		return
	}

	if err := utils.CheckOwnerOrModerator(actor, media.UserID); err != nil {
		utils.SendError(c, http.StatusForbidden, "Not authorized to access this media")
		return
	}

	c.JSON(http.StatusOK, media)
}

// DeleteMedia removes an asset unless a post still references it. The
// reference check is an explicit precondition, not a database cascade, so
// the caller gets a specific message back.
func (mc *MediaController) DeleteMedia(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	var media models.Media
	if err := mc.db.First(&media, "id = ?", c.Param("id")).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Media not found")
		return
	}

	if err := utils.CheckOwnerOrModerator(actor, media.UserID); err != nil {
		utils.SendError(c, http.StatusForbidden, "Not authorized to delete this media")
		return
	}

	var references int64
	mc.db.Model(&models.PostMedia{}).Where("media_id = ?", media.ID).Count(&references)
	if references > 0 {
		utils.SendError(c, http.StatusBadRequest, "Media is used in posts and cannot be deleted")
		return
	}

	for _, path := range []string{media.Path, filepath.Join(filepath.Dir(media.Path), "thumb-"+media.StoredName)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Get().Warn("failed to remove media file", zap.String("path", path), zap.Error(err))
		}
	}

	if err := mc.db.Delete(&media).Error; err != nil {
		utils.SendInternalError(c, "Failed to delete media", err)
		return
	}

	utils.SendMessage(c, "Media deleted successfully")
}

func (mc *MediaController) isAllowedType(mimeType string) bool {
	for _, allowed := range mc.cfg.AllowedTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}
