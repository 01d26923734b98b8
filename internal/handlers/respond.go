package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/emilythestrangee/campus-forum/backend/internal/middleware"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func internalError(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err), zap.String("request_id", c.GetString(middleware.KeyRequestID)))
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, "Internal server error")
}

// paramID parses a numeric path parameter and answers 400 when it is not one.
func paramID(c *gin.Context, name, what string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "Invalid "+what+" id")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type userResponse struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role.APIName(),
		IsActive:  u.IsActive,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

type postResponse struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	AuthorID     int       `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	AuthorRole   string    `json:"authorRole"`
	Votes        int       `json:"votes"`
	UpvotedBy    []int     `json:"upvotedBy"`
	DownvotedBy  []int     `json:"downvotedBy"`
	CommentCount int64     `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newPostResponse(p *models.Post, comments int64) postResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return postResponse{
		ID:           p.ID,
		Title:        p.Title,
		Content:      p.Content,
		Tags:         tags,
		AuthorID:     p.AuthorID,
		AuthorName:   p.AuthorName,
		AuthorRole:   p.AuthorRole.APIName(),
		Votes:        p.VoteCount,
		UpvotedBy:    []int{},
		DownvotedBy:  []int{},
		CommentCount: comments,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type commentResponse struct {
	ID              int       `json:"id"`
	Content         string    `json:"content"`
	PostID          int       `json:"postId"`
	AuthorID        int       `json:"authorId"`
	AuthorName      string    `json:"authorName"`
	AuthorRole      string    `json:"authorRole"`
	ParentCommentID *int      `json:"parentCommentId,omitempty"`
	Votes           int       `json:"votes"`
	UpvotedBy       []int     `json:"upvotedBy"`
	DownvotedBy     []int     `json:"downvotedBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func newCommentResponse(cm *models.Comment) commentResponse {
	return commentResponse{
		ID:              cm.ID,
		Content:         cm.Content,
		PostID:          cm.PostID,
		AuthorID:        cm.AuthorID,
		AuthorName:      cm.AuthorName,
		AuthorRole:      cm.AuthorRole.APIName(),
		ParentCommentID: cm.ParentCommentID,
		Votes:           cm.VoteCount,
		UpvotedBy:       []int{},
		DownvotedBy:     []int{},
		CreatedAt:       cm.CreatedAt,
		UpdatedAt:       cm.UpdatedAt,
	}
}
