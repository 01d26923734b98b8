package models

import "time"

// VoteType is the stored direction of a single vote.
type VoteType string

const (
	VoteUp   VoteType = "UPVOTE"
	VoteDown VoteType = "DOWNVOTE"
)

// Value is the contribution of one vote to its target's tally.
func (t VoteType) Value() int {
	if t == VoteUp {
		return 1
	}
	return -1
}

// PostVote is one user's current vote on a post. (post_id, user_id) is unique.
type PostVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	PostID    int       `gorm:"not null;uniqueIndex:idx_post_votes_post_user,priority:1" json:"post_id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_post_votes_post_user,priority:2;index" json:"user_id"`
	Type      VoteType  `gorm:"type:varchar(8);not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentVote is one user's current vote on a comment. (comment_id, user_id) is unique.
type CommentVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	CommentID int       `gorm:"not null;uniqueIndex:idx_comment_votes_comment_user,priority:1" json:"comment_id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_comment_votes_comment_user,priority:2;index" json:"user_id"`
	Type      VoteType  `gorm:"type:varchar(8);not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteRequest struct {
	Type string `json:"type" binding:"required"`
}
