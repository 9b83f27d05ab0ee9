package models

import (
	"time"
)

// Role is the closed set of privilege levels. Ordering: admin > editor > author > reader.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleAuthor Role = "author"
	RoleReader Role = "reader"
)

var roleLevels = map[Role]int{
	RoleAdmin:  3,
	RoleEditor: 2,
	RoleAuthor: 1,
	RoleReader: 0,
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the privilege rank of the role, -1 for unknown roles.
func (r Role) Level() int {
	if lvl, ok := roleLevels[r]; ok {
		return lvl
	}
	return -1
}

type User struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Username         string    `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email            string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash     string    `json:"-" gorm:"not null;size:255"`
	Role             Role      `json:"role" gorm:"not null;size:20;default:'reader'"`
	Bio              *string   `json:"bio" gorm:"type:text"`
	SocialMediaLinks JSONMap   `json:"social_media_links" gorm:"type:jsonb"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
