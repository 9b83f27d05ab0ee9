package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inkwell-api/middleware"
	"inkwell-api/models"
	"inkwell-api/repositories"
	"inkwell-api/utils"
)

// CommentController is a thin HTTP adapter over the moderation engine; all
// ledger and counter logic lives in the repository.
type CommentController struct {
	comments *repositories.CommentRepository
}

func NewCommentController(comments *repositories.CommentRepository) *CommentController {
	return &CommentController{comments: comments}
}

type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

type UpdateCommentRequest struct {
	Content *string               `json:"content"`
	Status  *models.CommentStatus `json:"status"`
}

type ReactRequest struct {
	Action models.InteractionAction `json:"action" binding:"required"`
}

type ReportRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// GetComments lists a post's top-level comments with one level of replies.
func (cc *CommentController) GetComments(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	status := models.CommentStatus(c.DefaultQuery("status", string(models.CommentApproved)))
	sort := c.DefaultQuery("sort", "newest")

	comments, err := cc.comments.ListForPost(uint(postID), status, sort, viewerID(c))
	if err != nil {
		cc.sendModerationError(c, err, "Failed to fetch comments")
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (cc *CommentController) GetComment(c *gin.Context) {
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid comment id")
		return
	}

	comment, err := cc.comments.GetByID(uint(commentID), viewerID(c))
	if err != nil {
		cc.sendModerationError(c, err, "Failed to fetch comment")
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (cc *CommentController) AddComment(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Comment content is required")
		return
	}

	comment, err := cc.comments.Create(uint(postID), actor, req.Content, req.ParentID)
	if err != nil {
		cc.sendModerationError(c, err, "Failed to add comment")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (cc *CommentController) UpdateComment(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid comment id")
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := cc.comments.Update(uint(commentID), actor, req.Content, req.Status)
	if err != nil {
		cc.sendModerationError(c, err, "Failed to update comment")
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (cc *CommentController) DeleteComment(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid comment id")
		return
	}

	if err := cc.comments.Delete(uint(commentID), actor); err != nil {
		cc.sendModerationError(c, err, "Failed to delete comment")
		return
	}

	utils.SendMessage(c, "Comment deleted successfully")
}

// LikeComment applies the like/dislike toggle protocol and returns the
// comment with its updated counters and the caller's current interaction.
func (cc *CommentController) LikeComment(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid comment id")
		return
	}

	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Action is required")
		return
	}

	comment, err := cc.comments.React(uint(commentID), actor, req.Action)
	if err != nil {
		cc.sendModerationError(c, err, "Failed to process rating")
		return
	}

	c.JSON(http.StatusOK, comment)
}

func (cc *CommentController) ReportComment(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid comment id")
		return
	}

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Report reason is required")
		return
	}

	if err := cc.comments.Report(uint(commentID), actor, req.Reason); err != nil {
		cc.sendModerationError(c, err, "Failed to report comment")
		return
	}

	utils.SendMessage(c, "Comment reported successfully")
}

// sendModerationError maps repository error kinds onto the error taxonomy:
// missing entities and cross-entity mismatches are 404, duplicate ledger
// entries and malformed input are 400, permission failures are 403.
func (cc *CommentController) sendModerationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repositories.ErrPostNotFound):
		utils.SendError(c, http.StatusNotFound, "Post not found")
	case errors.Is(err, repositories.ErrCommentNotFound):
		utils.SendError(c, http.StatusNotFound, "Comment not found")
	case errors.Is(err, repositories.ErrParentNotFound):
		utils.SendError(c, http.StatusNotFound, "Parent comment not found for this post")
	case errors.Is(err, repositories.ErrSelfInteraction):
		utils.SendError(c, http.StatusBadRequest, "Cannot rate your own comment")
	case errors.Is(err, repositories.ErrAlreadyInteracted):
		utils.SendError(c, http.StatusBadRequest, "Interaction already recorded")
	case errors.Is(err, repositories.ErrAlreadyReported):
		utils.SendError(c, http.StatusBadRequest, "You already reported this comment")
	case errors.Is(err, repositories.ErrInvalidAction),
		errors.Is(err, repositories.ErrInvalidStatus):
		utils.SendError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, utils.ErrForbidden):
		utils.SendError(c, http.StatusForbidden, "Not authorized to modify this comment")
	case errors.Is(err, utils.ErrAuthRequired):
		utils.SendError(c, http.StatusUnauthorized, "Not authorized")
	default:
		utils.SendInternalError(c, fallback, err)
	}
}

func viewerID(c *gin.Context) uint {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
