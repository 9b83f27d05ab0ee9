package repositories

import (
	"errors"

	"gorm.io/gorm"

	"inkwell-api/models"
	"inkwell-api/utils"
)

// Error kinds returned by the moderation engine. Handlers translate these to
// HTTP statuses; nothing in this package touches the transport layer.
var (
	ErrPostNotFound      = errors.New("post not found")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrParentNotFound    = errors.New("parent comment not found for this post")
	ErrSelfInteraction   = errors.New("cannot rate your own comment")
	ErrAlreadyInteracted = errors.New("interaction already recorded")
	ErrAlreadyReported   = errors.New("you already reported this comment")
	ErrInvalidAction     = errors.New("action must be 'like' or 'dislike'")
	ErrInvalidStatus     = errors.New("invalid comment status")
)

// CommentRepository owns the comment tree, the interaction and report
// ledgers, and the derived counters kept consistent with them. Every
// counter mutation is a relative SQL expression executed in the same
// transaction as its ledger row, so concurrent reactions on one comment
// never lose updates and a failed request rolls back both together.
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create adds a comment to a post. A reply's parent must belong to the same
// post; a dangling or cross-post parent is NotFound, not a validation error.
// Comments from admin/editor actors start approved, everyone else's start
// pending.
func (r *CommentRepository) Create(postID uint, actor *models.User, content string, parentID *uint) (*models.Comment, error) {
	var post models.Post
	if err := r.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if parentID != nil {
		var parent models.Comment
		err := r.db.Where("id = ? AND post_id = ?", *parentID, postID).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	status := models.CommentPending
	if utils.IsModerator(actor) {
		status = models.CommentApproved
	}

	comment := models.Comment{
		Content:  content,
		PostID:   postID,
		UserID:   actor.ID,
		ParentID: parentID,
		Status:   status,
	}
	if err := r.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	return r.load(comment.ID, actor.ID)
}

// GetByID returns one comment with its author, one level of replies, and the
// viewer's own interaction when viewerID is non-zero.
func (r *CommentRepository) GetByID(id uint, viewerID uint) (*models.Comment, error) {
	comment, err := r.load(id, viewerID)
	if err != nil {
		return nil, err
	}
	if err := r.attachReplies([]*models.Comment{comment}); err != nil {
		return nil, err
	}

	var post models.Post
	if err := r.db.Select("id", "title", "slug").First(&post, comment.PostID).Error; err == nil {
		comment.Post = &post
	}

	return comment, nil
}

// ListForPost returns a post's top-level comments filtered by moderation
// status (default approved), each with one eagerly-loaded level of replies
// and the viewer's interaction. sort is "oldest" or "newest" (default).
func (r *CommentRepository) ListForPost(postID uint, status models.CommentStatus, sort string, viewerID uint) ([]models.Comment, error) {
	var post models.Post
	if err := r.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if status == "" {
		status = models.CommentApproved
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	order := "created_at DESC"
	if sort == "oldest" {
		order = "created_at ASC"
	}

	var comments []models.Comment
	err := r.db.Preload("User").
		Where("post_id = ? AND status = ? AND parent_id IS NULL", postID, status).
		Order(order).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	refs := make([]*models.Comment, len(comments))
	for i := range comments {
		refs[i] = &comments[i]
	}
	if err := r.attachReplies(refs); err != nil {
		return nil, err
	}
	if viewerID != 0 {
		if err := r.attachViewerInteractions(refs, viewerID); err != nil {
			return nil, err
		}
	}

	return comments, nil
}

// Update edits a comment. The owner may change content; admin/editor actors
// may additionally change moderation status. A status supplied by a
// non-privileged owner is ignored rather than rejected.
func (r *CommentRepository) Update(id uint, actor *models.User, content *string, status *models.CommentStatus) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	if err := utils.CheckOwnerOrModerator(actor, comment.UserID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if content != nil && *content != "" {
		updates["content"] = *content
	}
	if status != nil && utils.IsModerator(actor) {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		updates["status"] = *status
	}

	if len(updates) > 0 {
		if err := r.db.Model(&comment).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return r.load(comment.ID, actor.ID)
}

// Delete removes a comment and its ledger rows. Owner or admin/editor only.
func (r *CommentRepository) Delete(id uint, actor *models.User) error {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if err := utils.CheckOwnerOrModerator(actor, comment.UserID); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentInteraction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentReport{}).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
}

// React applies a like/dislike with toggle semantics:
//
//  1. no prior interaction       -> insert row, bump the matching counter
//  2. prior row, same action     -> delete row, drop the matching counter
//  3. prior row, opposite action -> flip the row, move one count across
//
// The ledger mutation and the counter updates run in one transaction, and
// counters move only by relative expressions evaluated by the store. Every
// branch is guarded by the store: the insert resolves same-user races at the
// (comment_id, user_id) unique index, and the delete/flip statements carry an
// action predicate so a row another request already removed or flipped
// affects nothing. A guard that fires rolls the transaction back as
// ErrAlreadyInteracted, leaving counters equal to the ledger.
func (r *CommentRepository) React(id uint, actor *models.User, action models.InteractionAction) (*models.Comment, error) {
	if !action.Valid() {
		return nil, ErrInvalidAction
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}

		if comment.UserID == actor.ID {
			return ErrSelfInteraction
		}

		var existing models.CommentInteraction
		err := tx.Where("comment_id = ? AND user_id = ?", id, actor.ID).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			interaction := models.CommentInteraction{
				CommentID: id,
				UserID:    actor.ID,
				Action:    action,
			}
			if err := tx.Create(&interaction).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrAlreadyInteracted
				}
				return err
			}
			return adjustCounter(tx, id, action, +1)

		case err != nil:
			return err

		case existing.Action == action:
			return toggleOff(tx, id, actor.ID, action)

		default:
			return switchAction(tx, id, actor.ID, action)
		}
	})
	if err != nil {
		return nil, err
	}

	return r.load(id, actor.ID)
}

// Report records one report per (comment, user). The report row insert and
// the reported flag/counter update are one atomic unit; a duplicate report is
// an error, never a silent no-op.
func (r *CommentRepository) Report(id uint, actor *models.User, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}

		report := models.CommentReport{
			CommentID: id,
			UserID:    actor.ID,
			Reason:    reason,
		}
		if err := tx.Create(&report).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyReported
			}
			return err
		}

		return tx.Model(&models.Comment{}).Where("id = ?", id).
			UpdateColumns(map[string]interface{}{
				"reported":       true,
				"reported_count": gorm.Expr("reported_count + 1"),
			}).Error
	})
}

// toggleOff removes the actor's reaction and drops the matching counter. The
// delete carries the action predicate, so when another request already
// removed or flipped the row this statement affects zero rows and the counter
// must not move.
func toggleOff(tx *gorm.DB, commentID, userID uint, action models.InteractionAction) error {
	res := tx.Where("comment_id = ? AND user_id = ? AND action = ?", commentID, userID, action).
		Delete(&models.CommentInteraction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyInteracted
	}
	return adjustCounter(tx, commentID, action, -1)
}

// switchAction flips the actor's reaction to the other side and moves one
// count across, guarded the same way as toggleOff.
func switchAction(tx *gorm.DB, commentID, userID uint, action models.InteractionAction) error {
	res := tx.Model(&models.CommentInteraction{}).
		Where("comment_id = ? AND user_id = ? AND action = ?", commentID, userID, action.Opposite()).
		Update("action", action)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyInteracted
	}
	if err := adjustCounter(tx, commentID, action, +1); err != nil {
		return err
	}
	return adjustCounter(tx, commentID, action.Opposite(), -1)
}

func adjustCounter(tx *gorm.DB, commentID uint, action models.InteractionAction, delta int) error {
	column := "likes"
	if action == models.ActionDislike {
		column = "dislikes"
	}
	return tx.Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

// load fetches one comment with its author and, when viewerID is non-zero,
// the viewer's own interaction.
func (r *CommentRepository) load(id uint, viewerID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	if viewerID != 0 {
		if err := r.attachViewerInteractions([]*models.Comment{&comment}, viewerID); err != nil {
			return nil, err
		}
	}

	return &comment, nil
}

// attachReplies loads one level of children for the given comments in a
// single query and distributes them by parent id.
func (r *CommentRepository) attachReplies(comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	ids := make([]uint, len(comments))
	byID := make(map[uint]*models.Comment, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		byID[c.ID] = c
		c.Replies = []models.Comment{}
	}

	var replies []models.Comment
	err := r.db.Preload("User").
		Where("parent_id IN ?", ids).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return err
	}

	for _, reply := range replies {
		if parent, ok := byID[*reply.ParentID]; ok {
			parent.Replies = append(parent.Replies, reply)
		}
	}
	return nil
}

// attachViewerInteractions marks each comment with the viewer's own prior
// like/dislike so clients render reaction state without another round trip.
func (r *CommentRepository) attachViewerInteractions(comments []*models.Comment, viewerID uint) error {
	if len(comments) == 0 {
		return nil
	}

	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}

	var interactions []models.CommentInteraction
	err := r.db.Where("comment_id IN ? AND user_id = ?", ids, viewerID).
		Find(&interactions).Error
	if err != nil {
		return err
	}

	byComment := make(map[uint]models.InteractionAction, len(interactions))
	for _, in := range interactions {
		byComment[in.CommentID] = in.Action
	}
	for _, c := range comments {
		if action, ok := byComment[c.ID]; ok {
			a := action
			c.UserInteraction = &a
		}
	}
	return nil
}
