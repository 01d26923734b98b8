package models

import (
	"time"

	"gorm.io/datatypes"
)

type Post struct {
	ID         int                         `gorm:"primaryKey" json:"id"`
	Title      string                      `gorm:"size:300;not null" json:"title"`
	Content    string                      `gorm:"type:text;not null" json:"content"`
	Tags       datatypes.JSONSlice[string] `gorm:"not null" json:"tags"`
	AuthorID   int                         `gorm:"not null;index" json:"author_id"`
	AuthorName string                      `json:"author_name"`
	AuthorRole Role                        `gorm:"type:varchar(16)" json:"author_role"`
	VoteCount  int                         `gorm:"not null;default:0" json:"vote_count"`

	Comments []Comment  `gorm:"foreignKey:PostID" json:"-"`
	Votes    []PostVote `gorm:"foreignKey:PostID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreatePostRequest struct {
	Title   string   `json:"title" binding:"required,max=300"`
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags"`
}
