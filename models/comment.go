package models

import (
	"time"
)

// CommentStatus gates comment visibility through moderation.
type CommentStatus string

const (
	CommentApproved CommentStatus = "approved"
	CommentPending  CommentStatus = "pending"
	CommentRejected CommentStatus = "rejected"
)

func (s CommentStatus) Valid() bool {
	switch s {
	case CommentApproved, CommentPending, CommentRejected:
		return true
	}
	return false
}

// InteractionAction is a user's vote on a comment.
type InteractionAction string

const (
	ActionLike    InteractionAction = "like"
	ActionDislike InteractionAction = "dislike"
)

func (a InteractionAction) Valid() bool {
	return a == ActionLike || a == ActionDislike
}

// Opposite returns the other action.
func (a InteractionAction) Opposite() InteractionAction {
	if a == ActionLike {
		return ActionDislike
	}
	return ActionLike
}

type Comment struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	Content       string        `json:"content" gorm:"type:text;not null"`
	PostID        uint          `json:"post_id" gorm:"not null;index"`
	UserID        uint          `json:"user_id" gorm:"not null;index"`
	ParentID      *uint         `json:"parent_id" gorm:"index"`
	Status        CommentStatus `json:"status" gorm:"not null;size:20;default:'pending';index"`
	Likes         int           `json:"likes" gorm:"default:0"`
	Dislikes      int           `json:"dislikes" gorm:"default:0"`
	Reported      bool          `json:"reported" gorm:"default:false"`
	ReportedCount int           `json:"reported_count" gorm:"default:0"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	User User `json:"user" gorm:"foreignKey:UserID"`

	// Post is a summary of the parent post, attached on single-comment reads.
	Post *Post `json:"post,omitempty" gorm:"-"`

	// Replies carries one eagerly-loaded level of children keyed off
	// parent_id; deeper levels are fetched per comment.
	Replies []Comment `json:"replies,omitempty" gorm:"-"`

	// UserInteraction is the requesting user's own like/dislike on this
	// comment, attached on reads so clients can render reaction state.
	UserInteraction *InteractionAction `json:"user_interaction,omitempty" gorm:"-"`
}

// CommentInteraction is the reaction ledger: at most one row per
// (comment_id, user_id) pair, enforced by a composite unique constraint.
type CommentInteraction struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	CommentID uint              `json:"comment_id" gorm:"not null;uniqueIndex:uk_comment_interactions_comment_user"`
	UserID    uint              `json:"user_id" gorm:"not null;uniqueIndex:uk_comment_interactions_comment_user"`
	Action    InteractionAction `json:"action" gorm:"not null;size:10"`
	CreatedAt time.Time         `json:"created_at"`
}

// CommentReport is the report ledger: one row per (comment_id, user_id).
type CommentReport struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"comment_id" gorm:"not null;uniqueIndex:uk_comment_reports_comment_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:uk_comment_reports_comment_user"`
	Reason    string    `json:"reason" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
