package models

import (
	"time"
)

// PostStatus is the publish state of a post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
	PostScheduled PostStatus = "scheduled"
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostDraft, PostPublished, PostScheduled:
		return true
	}
	return false
}

type Post struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;size:255"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;not null;size:255"`
	Content     string     `json:"content" gorm:"type:text;not null"`
	Excerpt     string     `json:"excerpt" gorm:"type:text"`
	Status      PostStatus `json:"status" gorm:"not null;size:20;default:'draft';index"`
	PublishedAt *time.Time `json:"published_at"`
	AuthorID    uint       `json:"author_id" gorm:"not null;index"`
	CategoryID  *uint      `json:"category_id" gorm:"index"`
	Featured    bool       `json:"featured" gorm:"default:false"`
	Sticky      bool       `json:"sticky" gorm:"default:false"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Author User `json:"author" gorm:"foreignKey:AuthorID"`

	// Tags are loaded through explicit post_tags join queries, never as an
	// implicit association graph.
	Tags []Tag `json:"tags" gorm:"-"`
}

// PostTag is the explicit post<->tag join row.
type PostTag struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	PostID uint `json:"post_id" gorm:"not null;index"`
	TagID  uint `json:"tag_id" gorm:"not null;index"`
}

// PostMedia records a post's use of an uploaded media asset. Existence of a
// row blocks deletion of the asset.
type PostMedia struct {
	ID      uint `json:"id" gorm:"primaryKey"`
	PostID  uint `json:"post_id" gorm:"not null;index"`
	MediaID uint `json:"media_id" gorm:"not null;index"`
}
