package models

import "time"

type Comment struct {
	ID              int    `gorm:"primaryKey" json:"id"`
	Content         string `gorm:"type:text;not null" json:"content"`
	PostID          int    `gorm:"not null;index" json:"post_id"`
	AuthorID        int    `gorm:"not null;index" json:"author_id"`
	AuthorName      string `json:"author_name"`
	AuthorRole      Role   `gorm:"type:varchar(16)" json:"author_role"`
	ParentCommentID *int   `gorm:"index" json:"parent_comment_id,omitempty"`
	VoteCount       int    `gorm:"not null;default:0" json:"vote_count"`

	Replies []Comment     `gorm:"foreignKey:ParentCommentID" json:"-"`
	Votes   []CommentVote `gorm:"foreignKey:CommentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Content         string `json:"content" binding:"required"`
	ParentCommentID *int   `json:"parentCommentId"`
}
