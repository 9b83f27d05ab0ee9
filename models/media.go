package models

import (
	"time"
)

type Media struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OriginalName string    `json:"original_name" gorm:"not null;size:255"`
	StoredName   string    `json:"stored_name" gorm:"not null;size:255"`
	Path         string    `json:"path" gorm:"not null;size:255"`
	MimeType     string    `json:"mime_type" gorm:"not null;size:100"`
	Size         int64     `json:"size" gorm:"not null"`
	Width        *int      `json:"width"`
	Height       *int      `json:"height"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}
