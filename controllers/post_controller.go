package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkwell-api/middleware"
	"inkwell-api/models"
	"inkwell-api/utils"
)

type PostController struct {
	db *gorm.DB
}

func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

type CreatePostRequest struct {
	Title       string            `json:"title" binding:"required"`
	Content     string            `json:"content" binding:"required"`
	Excerpt     string            `json:"excerpt"`
	Status      models.PostStatus `json:"status"`
	PublishedAt *time.Time        `json:"published_at"`
	CategoryID  *uint             `json:"category_id"`
	Featured    bool              `json:"featured"`
	Sticky      bool              `json:"sticky"`
	Tags        []uint            `json:"tags"`
}

type UpdatePostRequest struct {
	Title       *string            `json:"title"`
	Content     *string            `json:"content"`
	Excerpt     *string            `json:"excerpt"`
	Status      *models.PostStatus `json:"status"`
	PublishedAt *time.Time         `json:"published_at"`
	CategoryID  *uint              `json:"category_id"`
	Featured    *bool              `json:"featured"`
	Sticky      *bool              `json:"sticky"`
	Tags        *[]uint            `json:"tags"`
}

func (pc *PostController) GetPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset := (page - 1) * limit

	query := pc.db.Model(&models.Post{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if tag := c.Query("tag"); tag != "" {
		query = query.Where("id IN (?)",
			pc.db.Model(&models.PostTag{}).Select("post_id").Where("tag_id = ?", tag))
	}

	var total int64
	query.Count(&total)

	var posts []models.Post
	err := query.Preload("Author").
		Order("sticky DESC, published_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch posts", err)
		return
	}

	if err := pc.loadTags(posts); err != nil {
		utils.SendInternalError(c, "Failed to fetch posts", err)
		return
	}

	utils.SendPaginated(c, posts, page, limit, total)
}

// GetPost resolves a numeric identifier as an id and anything else as a slug.
func (pc *PostController) GetPost(c *gin.Context) {
	identifier := c.Param("id")

	query := pc.db.Preload("Author")
	if _, err := strconv.Atoi(identifier); err == nil {
		query = query.Where("id = ?", identifier)
	} else {
		query = query.Where("slug = ?", identifier)
	}

	var post models.Post
	if err := query.First(&post).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Post not found")
		return
	}

	post.Tags = pc.tagsForPost(post.ID)

	c.JSON(http.StatusOK, post)
}

func (pc *PostController) CreatePost(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if err := utils.CheckRole(actor, models.RoleAdmin, models.RoleAuthor); err != nil {
		utils.SendError(c, http.StatusForbidden, "Not authorized to create posts")
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = models.PostDraft
	}
	if !status.Valid() {
		utils.SendError(c, http.StatusBadRequest, "Unknown post status")
		return
	}

	post := models.Post{
		Title:       req.Title,
		Slug:        utils.Slugify(req.Title),
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		Status:      status,
		AuthorID:    actor.ID,
		CategoryID:  req.CategoryID,
		Featured:    req.Featured,
		Sticky:      req.Sticky,
		PublishedAt: req.PublishedAt,
	}
	if status == models.PostPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	err := pc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		if len(req.Tags) > 0 {
			return replaceTags(tx, post.ID, req.Tags)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.SendError(c, http.StatusBadRequest, "A post with this title already exists")
			return
		}
		utils.SendInternalError(c, "Failed to create post", err)
		return
	}

	pc.db.Preload("Author").First(&post, post.ID)
	post.Tags = pc.tagsForPost(post.ID)

	c.JSON(http.StatusCreated, post)
}

func (pc *PostController) UpdatePost(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	postID := c.Param("id")

	var post models.Post
	if err := pc.db.First(&post, "id = ?", postID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Post not found")
		return
	}

	if err := utils.CheckOwnerOrAdmin(actor, post.AuthorID); err != nil {
		utils.SendError(c, http.StatusForbidden, "Not authorized to update this post")
		return
	}

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Excerpt != nil {
		updates["excerpt"] = *req.Excerpt
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.Sticky != nil {
		updates["sticky"] = *req.Sticky
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}

	// Slug is regenerated only when a differing title is supplied.
	if req.Title != nil && *req.Title != post.Title {
		updates["title"] = *req.Title
		updates["slug"] = utils.Slugify(*req.Title)
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			utils.SendError(c, http.StatusBadRequest, "Unknown post status")
			return
		}
		updates["status"] = *req.Status
	}

	// Transitioning into published stamps the publish time exactly once;
	// otherwise an explicitly supplied timestamp is stored as-is.
	if req.Status != nil && *req.Status == models.PostPublished && post.Status != models.PostPublished {
		updates["published_at"] = time.Now()
	} else if req.PublishedAt != nil {
		updates["published_at"] = *req.PublishedAt
	}

	err := pc.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&post).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Tags != nil {
			return replaceTags(tx, post.ID, *req.Tags)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.SendError(c, http.StatusBadRequest, "A post with this title already exists")
			return
		}
		utils.SendInternalError(c, "Failed to update post", err)
		return
	}

	pc.db.Preload("Author").First(&post, post.ID)
	post.Tags = pc.tagsForPost(post.ID)

	c.JSON(http.StatusOK, post)
}

func (pc *PostController) DeletePost(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	postID := c.Param("id")

	var post models.Post
	if err := pc.db.First(&post, "id = ?", postID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Post not found")
		return
	}

	if err := utils.CheckOwnerOrAdmin(actor, post.AuthorID); err != nil {
		utils.SendError(c, http.StatusForbidden, "Not authorized to delete this post")
		return
	}

	err := pc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostMedia{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.SendInternalError(c, "Failed to delete post", err)
		return
	}

	utils.SendMessage(c, "Post deleted successfully")
}

// replaceTags rewrites a post's tag associations wholesale: the supplied list
// replaces whatever was there, never merges into it. Unknown tag ids are
// dropped silently.
func replaceTags(tx *gorm.DB, postID uint, tagIDs []uint) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}

	var tags []models.Tag
	if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return err
	}

	rows := make([]models.PostTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, models.PostTag{PostID: postID, TagID: tag.ID})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

func (pc *PostController) tagsForPost(postID uint) []models.Tag {
	var tags []models.Tag
	pc.db.Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("post_tags.post_id = ?", postID).
		Find(&tags)
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags
}

// loadTags attaches tags to a page of posts with one join query.
func (pc *PostController) loadTags(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		posts[i].Tags = []models.Tag{}
	}

	type taggedRow struct {
		models.Tag
		PostID uint
	}
	var rows []taggedRow
	err := pc.db.Model(&models.Tag{}).
		Select("tags.*, post_tags.post_id").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("post_tags.post_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return err
	}

	byPost := make(map[uint][]models.Tag)
	for _, row := range rows {
		byPost[row.PostID] = append(byPost[row.PostID], row.Tag)
	}
	for i := range posts {
		if tags, ok := byPost[posts[i].ID]; ok {
			posts[i].Tags = tags
		}
	}
	return nil
}
