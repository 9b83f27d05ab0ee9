package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell-api/cache"
	"inkwell-api/logger"
	"inkwell-api/middleware"
	"inkwell-api/models"
	"inkwell-api/utils"
)

const (
	engagementCacheKey = "analytics:engagement"
	engagementCacheTTL = 5 * time.Minute
)

// AnalyticsController is the read-only aggregation surface over the content
// store and the moderation engine. It never writes event rows.
type AnalyticsController struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewAnalyticsController(db *gorm.DB, cacheClient *cache.Cache) *AnalyticsController {
	return &AnalyticsController{db: db, cache: cacheClient}
}

type ViewsByDate struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type PostAnalyticsResponse struct {
	ViewCount    int64         `json:"view_count"`
	AvgTime      float64       `json:"avg_time"`
	CommentCount int64         `json:"comment_count"`
	LikeCount    int64         `json:"like_count"`
	ViewsByDate  []ViewsByDate `json:"views_by_date"`
}

type TopPost struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	ViewCount int64  `json:"view_count"`
}

type UserActivity struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	PostCount    int64  `json:"post_count"`
	CommentCount int64  `json:"comment_count"`
}

type PostSummary struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type RecentComment struct {
	models.Comment
	Post PostSummary `json:"post"`
}

type EngagementResponse struct {
	TopPosts       []TopPost       `json:"top_posts"`
	RecentComments []RecentComment `json:"recent_comments"`
	UserActivity   []UserActivity  `json:"user_activity"`
}

// GetPostAnalytics returns per-post rollups: view count, average view
// duration, comment/like totals, and views grouped by day.
func (ac *AnalyticsController) GetPostAnalytics(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	postID := c.Param("id")

	var post models.Post
	if err := ac.db.First(&post, "id = ?", postID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Post not found")
		return
	}

	if err := utils.CheckRole(actor, models.RoleAdmin, models.RoleEditor, models.RoleAuthor); err != nil {
		utils.SendError(c, http.StatusForbidden, "Not authorized to view analytics")
		return
	}
	if actor.Role == models.RoleAuthor && post.AuthorID != actor.ID {
		utils.SendError(c, http.StatusForbidden, "Not authorized to view analytics for this post")
		return
	}

	var resp PostAnalyticsResponse

	ac.db.Model(&models.AnalyticsEvent{}).
		Where("post_id = ? AND event_type = ?", post.ID, models.EventView).
		Count(&resp.ViewCount)

	var avgTime sql.NullFloat64
	row := ac.db.Model(&models.AnalyticsEvent{}).
		Select("AVG(CAST(event_data->>'duration' AS INTEGER))").
		Where("post_id = ? AND event_type = ?", post.ID, models.EventView).
		Row()
	if err := row.Scan(&avgTime); err == nil && avgTime.Valid {
		resp.AvgTime = avgTime.Float64
	}

	ac.db.Model(&models.Comment{}).
		Where("post_id = ?", post.ID).
		Count(&resp.CommentCount)

	ac.db.Model(&models.Comment{}).
		Select("COALESCE(SUM(likes), 0)").
		Where("post_id = ?", post.ID).
		Scan(&resp.LikeCount)

	err := ac.db.Model(&models.AnalyticsEvent{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("post_id = ? AND event_type = ?", post.ID, models.EventView).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&resp.ViewsByDate).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch analytics", err)
		return
	}
	if resp.ViewsByDate == nil {
		resp.ViewsByDate = []ViewsByDate{}
	}

	c.JSON(http.StatusOK, resp)
}

// GetEngagement returns the site-wide engagement snapshot: top posts by
// views, the most recent comments, and the most prolific users. The snapshot
// is served from Redis for a short TTL when caching is enabled.
func (ac *AnalyticsController) GetEngagement(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := ac.cache.Get(ctx, engagementCacheKey); err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
		return
	}

	var resp EngagementResponse

	err := ac.db.Model(&models.Post{}).
		Select("posts.id, posts.title, posts.slug, " +
			"(SELECT COUNT(*) FROM analytics_events WHERE analytics_events.post_id = posts.id AND analytics_events.event_type = 'view') AS view_count").
		Order("view_count DESC").
		Limit(5).
		Scan(&resp.TopPosts).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch engagement", err)
		return
	}
	if resp.TopPosts == nil {
		resp.TopPosts = []TopPost{}
	}

	var comments []models.Comment
	err = ac.db.Preload("User").
		Order("created_at DESC").
		Limit(5).
		Find(&comments).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch engagement", err)
		return
	}
	resp.RecentComments = ac.withPostSummaries(comments)

	err = ac.db.Model(&models.User{}).
		Select("users.id, users.username, " +
			"(SELECT COUNT(*) FROM posts WHERE posts.author_id = users.id) AS post_count, " +
			"(SELECT COUNT(*) FROM comments WHERE comments.user_id = users.id) AS comment_count").
		Order("post_count DESC").
		Limit(5).
		Scan(&resp.UserActivity).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch engagement", err)
		return
	}
	if resp.UserActivity == nil {
		resp.UserActivity = []UserActivity{}
	}

	if payload, err := json.Marshal(resp); err == nil {
		if err := ac.cache.Set(ctx, engagementCacheKey, payload, engagementCacheTTL); err != nil {
			logger.Get().Warn("failed to cache engagement snapshot", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (ac *AnalyticsController) withPostSummaries(comments []models.Comment) []RecentComment {
	result := make([]RecentComment, 0, len(comments))
	if len(comments) == 0 {
		return result
	}

	ids := make([]uint, len(comments))
	for i, comment := range comments {
		ids[i] = comment.PostID
	}

	var posts []models.Post
	ac.db.Where("id IN ?", ids).Find(&posts)
	byID := make(map[uint]PostSummary, len(posts))
	for _, post := range posts {
		byID[post.ID] = PostSummary{ID: post.ID, Title: post.Title, Slug: post.Slug}
	}

	for _, comment := range comments {
		result = append(result, RecentComment{Comment: comment, Post: byID[comment.PostID]})
	}
	return result
}
